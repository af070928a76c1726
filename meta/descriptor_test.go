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

package meta

import "testing"

func TestDecodeDescriptorEmpty(t *testing.T) {
	got, err := DecodeDescriptor("")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty object", got)
	}
}

func TestDecodeDescriptorFlattensNestedFieldsToLeavesOnly(t *testing.T) {
	doc := `<info>
		<name>eeg</name>
		<desc>
			<manufacturer>Acme</manufacturer>
			<cap>
				<size>58</size>
				<labels>
					<label>1</label>
					<label>2</label>
				</labels>
			</cap>
		</desc>
	</info>`
	got, err := DecodeDescriptor(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"manufacturer": "Acme", "size": "58", "label": "2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("got[%q] = %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["cap"]; ok {
		t.Error("cap is a container element; it must not appear in the flattened result")
	}
	if _, ok := got["labels"]; ok {
		t.Error("labels is a container element; it must not appear in the flattened result")
	}
}

func TestDecodeDescriptorMissingDescIsEmpty(t *testing.T) {
	got, err := DecodeDescriptor(`<info><name>eeg</name></info>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty object when <desc> is absent", got)
	}
}

func TestDecodeDescriptorLastWinsOnRepeatedSiblingTags(t *testing.T) {
	doc := `<info><desc><channel>first</channel><channel>second</channel></desc></info>`
	got, err := DecodeDescriptor(doc)
	if err != nil {
		t.Fatal(err)
	}
	if got["channel"] != "second" {
		t.Errorf("got %v, want last-wins value %q", got["channel"], "second")
	}
}

func TestDecodeDescriptorInvalidXML(t *testing.T) {
	if _, err := DecodeDescriptor("<not valid xml"); err == nil {
		t.Error("expected an error for malformed XML")
	}
}
