/*
 * Copyright (c) 2024-Present, BMX Contributors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package picker

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestExtractSearchKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ARN with role",
			input:    "arn:aws:iam::123456789012:role/Dev-Foo",
			expected: "Dev-Foo",
		},
		{
			name:     "account label without slash",
			input:    "Dev Account",
			expected: "Dev Account",
		},
		{
			name:     "path with multiple slashes",
			input:    "a/b/c/d/LastPart",
			expected: "LastPart",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "trailing slash",
			input:    "something/",
			expected: "something/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, extractSearchKey(tt.input))
		})
	}
}

func TestNewModel(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/Admin",
		"arn:aws:iam::123:role/Developer",
		"arn:aws:iam::456:role/ReadOnly",
	}

	m := New("Choose a Role:", items)

	require.Equal(t, "Choose a Role:", m.title)
	require.Equal(t, items, m.items)
	require.Len(t, m.searchKeys, 3)
	require.Equal(t, "Admin", m.searchKeys[0])
	require.Equal(t, "Developer", m.searchKeys[1])
	require.Equal(t, "ReadOnly", m.searchKeys[2])
	require.Len(t, m.filtered, 3)
	require.Equal(t, 0, m.cursor)
	require.Empty(t, m.selected)
	require.False(t, m.quitting)
	require.False(t, m.cancelled)
}

func TestModelFilter(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/AdminRole",
		"arn:aws:iam::123:role/DeveloperRole",
		"arn:aws:iam::456:role/ReadOnlyRole",
		"arn:aws:iam::456:role/AdminAccess",
	}

	m := New("Choose a Role:", items)
	require.Len(t, m.filtered, 4)

	m.textInput.SetValue("admin")
	m.filter()

	require.Len(t, m.filtered, 2)
	for _, idx := range m.filtered {
		require.Contains(t, []string{"AdminRole", "AdminAccess"}, m.searchKeys[idx])
	}
}

func TestModelFilterCaseInsensitive(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/AdminRole",
		"arn:aws:iam::123:role/adminaccess",
		"arn:aws:iam::456:role/ADMINISTRATOR",
	}

	m := New("Choose a Role:", items)

	m.textInput.SetValue("ADMIN")
	m.filter()

	require.Len(t, m.filtered, 3)
}

func TestModelFilterNoMatches(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/Admin",
		"arn:aws:iam::123:role/Developer",
	}

	m := New("Choose a Role:", items)

	m.textInput.SetValue("xyz123")
	m.filter()

	require.Len(t, m.filtered, 0)
}

func TestModelFilterClearQuery(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/Admin",
		"arn:aws:iam::123:role/Developer",
	}

	m := New("Choose a Role:", items)

	m.textInput.SetValue("admin")
	m.filter()
	require.Len(t, m.filtered, 1)

	m.textInput.SetValue("")
	m.filter()
	require.Len(t, m.filtered, 2)
}

func TestModelUpdateKeyNavigation(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/Admin",
		"arn:aws:iam::123:role/Developer",
		"arn:aws:iam::456:role/ReadOnly",
	}

	m := New("Choose a Role:", items)
	require.Equal(t, 0, m.cursor)

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = newModel.(Model)
	require.Equal(t, 1, m.cursor)

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = newModel.(Model)
	require.Equal(t, 2, m.cursor)

	// cannot move past the end
	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = newModel.(Model)
	require.Equal(t, 2, m.cursor)

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = newModel.(Model)
	require.Equal(t, 1, m.cursor)

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyHome})
	m = newModel.(Model)
	require.Equal(t, 0, m.cursor)

	// cannot move before the beginning
	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = newModel.(Model)
	require.Equal(t, 0, m.cursor)

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	m = newModel.(Model)
	require.Equal(t, 2, m.cursor)
}

func TestModelUpdateEnterSelection(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/Admin",
		"arn:aws:iam::123:role/Developer",
	}

	m := New("Choose a Role:", items)

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = newModel.(Model)

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(Model)

	require.True(t, m.quitting)
	require.False(t, m.cancelled)
	require.Equal(t, "arn:aws:iam::123:role/Developer", m.selected)
}

func TestModelUpdateEscCancel(t *testing.T) {
	m := New("Choose a Role:", []string{"arn:aws:iam::123:role/Admin"})

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = newModel.(Model)

	require.True(t, m.quitting)
	require.True(t, m.cancelled)
	require.Empty(t, m.selected)
}

func TestModelUpdateCtrlCCancel(t *testing.T) {
	m := New("Choose a Role:", []string{"arn:aws:iam::123:role/Admin"})

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = newModel.(Model)

	require.True(t, m.quitting)
	require.True(t, m.cancelled)
}

func TestModelViewNotQuitting(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/Admin",
		"arn:aws:iam::123:role/Developer",
	}

	m := New("Choose a Role:", items)
	view := m.View()

	require.Contains(t, view, "Choose a Role:")
	require.Contains(t, view, "Admin")
	require.Contains(t, view, "Developer")
	require.Contains(t, view, "navigate")
	require.Contains(t, view, "select")
	require.Contains(t, view, "cancel")
	require.Contains(t, view, "2/2")
}

func TestModelViewQuitting(t *testing.T) {
	m := New("Title", []string{"item1"})
	m.quitting = true

	require.Empty(t, m.View())
}

func TestModelViewNoMatches(t *testing.T) {
	m := New("Title", []string{"item1", "item2"})

	m.textInput.SetValue("xyz")
	m.filter()

	view := m.View()
	require.Contains(t, view, "No matches found")
	require.Contains(t, view, "0/2")
}

func TestModelPageUpPageDown(t *testing.T) {
	items := make([]string, 30)
	for i := 0; i < 30; i++ {
		items[i] = "item" + string(rune('A'+i))
	}

	m := New("Choose:", items)
	m.maxVisible = 10
	require.Equal(t, 0, m.cursor)

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m = newModel.(Model)
	require.Equal(t, 10, m.cursor)

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m = newModel.(Model)
	require.Equal(t, 20, m.cursor)

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m = newModel.(Model)
	require.Equal(t, 29, m.cursor)

	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	m = newModel.(Model)
	require.Equal(t, 19, m.cursor)

	for i := 0; i < 5; i++ {
		newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
		m = newModel.(Model)
	}
	require.Equal(t, 0, m.cursor)
}

func TestModelFilterThenSelect(t *testing.T) {
	items := []string{
		"arn:aws:iam::123:role/AdminRole",
		"arn:aws:iam::123:role/DeveloperRole",
		"arn:aws:iam::456:role/ReadOnlyRole",
	}

	m := New("Choose a Role:", items)

	m.textInput.SetValue("dev")
	m.filter()
	m.cursor = 0

	require.Len(t, m.filtered, 1)

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(Model)

	require.Equal(t, "arn:aws:iam::123:role/DeveloperRole", m.selected)
}

func TestModelWindowSizeUpdate(t *testing.T) {
	m := New("Title", []string{"item1", "item2"})

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = newModel.(Model)

	require.Equal(t, 24, m.windowHeight)
	require.Equal(t, 15, m.maxVisible)
}

func TestModelWindowSizeSmall(t *testing.T) {
	m := New("Title", []string{"item1", "item2"})

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	m = newModel.(Model)

	require.Equal(t, 3, m.maxVisible)
}

func TestPickSingleItem(t *testing.T) {
	result, err := Pick("Choose:", []string{"only-one-item"})

	require.NoError(t, err)
	require.Equal(t, "only-one-item", result)
}

func TestPickEmptyItems(t *testing.T) {
	_, err := Pick("Choose:", []string{})

	require.Error(t, err)
	require.Contains(t, err.Error(), "no items to select from")
}

func TestSearchKeyPreservesOriginalForDisplay(t *testing.T) {
	items := []string{
		"arn:aws:iam::123456789012:role/MyAdminRole",
	}

	m := New("Choose:", items)

	require.Equal(t, "MyAdminRole", m.searchKeys[0])
	require.Equal(t, "arn:aws:iam::123456789012:role/MyAdminRole", m.items[0])

	m.textInput.SetValue("admin")
	m.filter()

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(Model)

	require.Equal(t, "arn:aws:iam::123456789012:role/MyAdminRole", m.selected)
}
