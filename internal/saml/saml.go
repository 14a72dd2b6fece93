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

// Package saml extracts AWS role information from the pages and assertions
// Okta serves for an AWS federation app. The app login page is not well formed
// HTML so the SAMLResponse input is located with a literal pattern match; the
// decoded assertion itself is walked as a node tree.
package saml

import (
	"encoding/base64"
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const (
	nameKey            = "name"
	saml2Attribute     = "saml2:attribute"
	samlAttributesRole = "https://aws.amazon.com/SAML/Attributes/Role"
)

// Role one assumable AWS role from the assertion's Role attribute
type Role struct {
	RoleName     string
	PrincipalArn string
	RoleArn      string
}

// ParseError the login page or SAML assertion had an unexpected shape
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("saml: %s", e.Reason)
}

var (
	samlResponseInputRE = regexp.MustCompile(`<input[^>]+name="SAMLResponse"[^>]*>`)
	inputValueRE        = regexp.MustCompile(`value="([^"]*)"`)
)

// ExtractFromLoginPage returns the base64 SAMLResponse embedded in the app
// login page.
func ExtractFromLoginPage(page string) (string, error) {
	tag := samlResponseInputRE.FindString(page)
	if tag == "" {
		return "", &ParseError{Reason: "no SAMLResponse input on login page"}
	}
	m := inputValueRE.FindStringSubmatch(tag)
	if m == nil {
		return "", &ParseError{Reason: "SAMLResponse input has no value"}
	}
	return stdhtml.UnescapeString(m[1]), nil
}

// ExtractRoles decodes a base64 SAML assertion and returns the AWS roles from
// its Role attribute, in document order.
func ExtractRoles(assertion string) ([]Role, error) {
	raw, err := base64.StdEncoding.DecodeString(assertion)
	if err != nil {
		return nil, &ParseError{Reason: "assertion is not base64: " + err.Error()}
	}
	doc, err := html.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return nil, &ParseError{Reason: "assertion does not parse: " + err.Error()}
	}
	attr, ok := findRoleAttribute(doc)
	if !ok {
		return nil, &ParseError{Reason: "assertion has no AWS role attribute"}
	}

	values := findAttributeValues(attr)
	roles := make([]Role, 0, len(values))
	for _, pair := range values {
		idpRole := strings.Split(pair, ",")
		if len(idpRole) != 2 {
			return nil, &ParseError{Reason: fmt.Sprintf("malformed role attribute value %q", pair)}
		}
		roleArn := idpRole[1]
		segments := strings.Split(roleArn, "/")
		roles = append(roles, Role{
			RoleName:     segments[len(segments)-1],
			PrincipalArn: idpRole[0],
			RoleArn:      roleArn,
		})
	}
	return roles, nil
}

func findRoleAttribute(n *html.Node) (node *html.Node, found bool) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode && n.Data == saml2Attribute {
		for _, a := range n.Attr {
			if a.Key == nameKey && a.Val == samlAttributesRole {
				return n, true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if node, found = findRoleAttribute(c); found {
			return
		}
	}
	return nil, false
}

func findAttributeValues(n *html.Node) []string {
	if n == nil {
		return nil
	}
	values := []string{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.FirstChild != nil {
			values = append(values, c.FirstChild.Data)
		}
	}
	return values
}
