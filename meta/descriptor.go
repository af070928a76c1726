// Copyright (C) 2026 The LSL Archive Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package meta builds the structured attributes (stream_info,
// recorder_config, sync/alignment attributes) persisted alongside a
// recorded stream, including the conversion of a stream descriptor's
// free-form <desc> subtree into a flat map of its leaf elements.
package meta

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// xmlNode is a generic recursive XML element: any tag, any number of
// children, with its own text content. encoding/xml is used directly
// here rather than a third-party XML library, matching how the
// teacher repository handles comparable ad hoc XML parsing (see
// DESIGN.md).
type xmlNode struct {
	XMLName xml.Name
	Content string    `xml:",chardata"`
	Nodes   []xmlNode `xml:",any"`
}

// DecodeDescriptor parses a stream's full XML descriptor document and
// flattens the inner <desc> subtree into a single-level JSON-shaped
// object: every leaf element (one with no child elements) becomes a
// key with its trimmed text as the value, at every depth. Container
// elements are never themselves inserted, and any sibling or cousin
// elements sharing a tag collapse to the last one encountered
// (global last-wins across the whole subtree), matching the reference
// decoder's single current_tag/current_text event-loop state.
func DecodeDescriptor(xmlDoc string) (map[string]any, error) {
	if strings.TrimSpace(xmlDoc) == "" {
		return map[string]any{}, nil
	}
	var root xmlNode
	if err := xml.Unmarshal([]byte(xmlDoc), &root); err != nil {
		return nil, fmt.Errorf("meta: parse descriptor xml: %w", err)
	}
	desc := findChild(&root, "desc")
	if desc == nil {
		return map[string]any{}, nil
	}
	return nodeToObject(desc), nil
}

func findChild(n *xmlNode, tag string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == tag {
			return &n.Nodes[i]
		}
	}
	return nil
}

// nodeToObject flattens n's entire descendant subtree into one map:
// a leaf child (no further nested elements) is inserted by tag name,
// a non-leaf child is recursed into rather than inserted itself. Map
// assignment naturally implements global last-wins for tags repeated
// at any depth, not just among direct siblings.
func nodeToObject(n *xmlNode) map[string]any {
	obj := make(map[string]any)
	flattenLeaves(n, obj)
	return obj
}

func flattenLeaves(n *xmlNode, obj map[string]any) {
	for i := range n.Nodes {
		child := &n.Nodes[i]
		if len(child.Nodes) == 0 {
			obj[child.XMLName.Local] = strings.TrimSpace(child.Content)
		} else {
			flattenLeaves(child, obj)
		}
	}
}
