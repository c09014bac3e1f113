package project

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Spec is the built-in language catalog in GameMaker's GmlSpec.xml format.
type Spec struct {
	XMLName      xml.Name          `xml:"GameMakerLanguageSpec"`
	Runtime      string            `xml:"Runtime"`
	Functions    []SpecFunction    `xml:"Functions>Function"`
	Variables    []SpecVariable    `xml:"Variables>Variable"`
	Constants    []SpecConstant    `xml:"Constants>Constant"`
	Structures   []SpecStructure   `xml:"Structures>Structure"`
	Enumerations []SpecEnumeration `xml:"Enumerations>Enumeration"`
}

type SpecFunction struct {
	Name        string          `xml:"Name,attr"`
	ReturnType  string          `xml:"ReturnType,attr"`
	Deprecated  bool            `xml:"Deprecated,attr"`
	Pure        bool            `xml:"Pure,attr"`
	Description string          `xml:"Description"`
	Parameters  []SpecParameter `xml:"Parameter"`
}

type SpecParameter struct {
	Name        string `xml:"Name,attr"`
	Type        string `xml:"Type,attr"`
	Optional    bool   `xml:"Optional,attr"`
	Description string `xml:",chardata"`
}

type SpecVariable struct {
	Name        string `xml:"Name,attr"`
	Type        string `xml:"Type,attr"`
	Deprecated  bool   `xml:"Deprecated,attr"`
	Get         bool   `xml:"Get,attr"`
	Set         bool   `xml:"Set,attr"`
	Instance    bool   `xml:"Instance,attr"`
	Description string `xml:",chardata"`
}

type SpecConstant struct {
	Name        string `xml:"Name,attr"`
	Class       string `xml:"Class,attr"`
	Type        string `xml:"Type,attr"`
	Deprecated  bool   `xml:"Deprecated,attr"`
	Description string `xml:",chardata"`
}

type SpecStructure struct {
	Name   string      `xml:"Name,attr"`
	Fields []SpecField `xml:"Field"`
}

type SpecField struct {
	Name        string `xml:"Name,attr"`
	Type        string `xml:"Type,attr"`
	Get         bool   `xml:"Get,attr"`
	Set         bool   `xml:"Set,attr"`
	Description string `xml:",chardata"`
}

type SpecEnumeration struct {
	Name    string           `xml:"Name,attr"`
	Members []SpecEnumMember `xml:"Member"`
}

type SpecEnumMember struct {
	Name        string `xml:"Name,attr"`
	Value       string `xml:"Value,attr"`
	Description string `xml:",chardata"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseSpec decodes a GmlSpec.xml document.
func ParseSpec(r io.Reader) (*Spec, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("project: read spec: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	var spec Spec
	if err := xml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("project: decode spec: %w", err)
	}
	return &spec, nil
}

// LoadSpecFile reads and decodes the GmlSpec.xml file at path.
func LoadSpecFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("project: open spec: %w", err)
	}
	defer f.Close()
	return ParseSpec(f)
}
