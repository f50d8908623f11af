// Package importrules implements the declarative import configuration:
// path-prefix config selection and merge, rewrite-rule matching and
// fragment extraction, and single-entry-to-double-entry conversion. Source
// format adapters (CSV, ISO camt.053, credit-card text) live under
// internal/importadapters and drive this package by implementing Record.
package importrules

import (
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AccountType affects how a format adapter should have already signed an
// entry's amount: asset accounts increase on deposit, liability accounts
// increase on the opposite side.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
)

// ConversionAmountMode decides how the secondary amount is computed for a
// record whose transaction spans two commodities.
type ConversionAmountMode string

const (
	// ConversionAmountExtract reads the secondary amount straight from the
	// record's secondary_amount field.
	ConversionAmountExtract ConversionAmountMode = "extract"
	// ConversionAmountCompute derives it from the primary amount and rate.
	ConversionAmountCompute ConversionAmountMode = "compute"
)

// ConversionRateMode decides what a record's rate field means.
type ConversionRateMode string

const (
	// ConversionRatePriceOfSecondary: 1 secondary_commodity == rate commodity.
	ConversionRatePriceOfSecondary ConversionRateMode = "price_of_secondary"
	// ConversionRatePriceOfPrimary: 1 commodity == rate secondary_commodity.
	ConversionRatePriceOfPrimary ConversionRateMode = "price_of_primary"
)

// CommodityConversionSpec describes how to resolve a record's secondary
// commodity conversion, overridable per rewrite rule.
type CommodityConversionSpec struct {
	Amount    ConversionAmountMode `yaml:"amount,omitempty"`
	Commodity string               `yaml:"commodity,omitempty"`
	Rate      ConversionRateMode   `yaml:"rate,omitempty"`
	Disabled  bool                 `yaml:"disabled,omitempty"`
}

func (c CommodityConversionSpec) merge(other CommodityConversionSpec) CommodityConversionSpec {
	merged := c
	if other.Amount != "" {
		merged.Amount = other.Amount
	}
	if other.Commodity != "" {
		merged.Commodity = other.Commodity
	}
	if other.Rate != "" {
		merged.Rate = other.Rate
	}
	if other.Disabled {
		merged.Disabled = true
	}
	return merged
}

// CommoditySpec is the account's commodity handling: its primary
// commodity, the default conversion applied absent a per-rule override, and
// a rename table for commodities the source format spells differently than
// the ledger does.
type CommoditySpec struct {
	Primary    string                  `yaml:"primary,omitempty"`
	Conversion CommodityConversionSpec `yaml:"conversion,omitempty"`
	Rename     map[string]string       `yaml:"rename,omitempty"`
}

// UnmarshalYAML accepts either a bare primary-commodity string or a full map,
// matching the config's `commodity: USD` / `commodity: {primary: USD, ...}`
// shorthand. A custom UnmarshalYAML decodes the mapping node through its own
// Node.Decode call, which does not inherit the parent Decoder's
// KnownFields(true) setting, so unknown keys are rejected here explicitly.
func (c *CommoditySpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&c.Primary)
	}
	if err := rejectUnknownKeys(node, "primary", "conversion", "rename"); err != nil {
		return err
	}
	type plain CommoditySpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = CommoditySpec(p)
	return nil
}

// rejectUnknownKeys fails if a mapping node has a key outside allowed,
// restoring deny-unknown-fields behavior for types with a custom
// UnmarshalYAML (see CommoditySpec.UnmarshalYAML).
func rejectUnknownKeys(node *yaml.Node, allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		ok[k] = true
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !ok[key] {
			return &InvalidConfigError{Reason: fmt.Sprintf("unknown field %q at line %d", key, node.Content[i].Line)}
		}
	}
	return nil
}

func (c CommoditySpec) merge(other CommoditySpec) CommoditySpec {
	rename := make(map[string]string, len(c.Rename)+len(other.Rename))
	for k, v := range c.Rename {
		rename[k] = v
	}
	for k, v := range other.Rename {
		rename[k] = v
	}
	primary := c.Primary
	if other.Primary != "" {
		primary = other.Primary
	}
	return CommoditySpec{Primary: primary, Conversion: c.Conversion.merge(other.Conversion), Rename: rename}
}

// FormatSpec describes how to read the source file: its date layout, a
// field-key to column/label mapping, CSV delimiter, header lines to skip,
// and row order.
type FormatSpec struct {
	Date      string            `yaml:"date,omitempty"`
	Fields    map[string]string `yaml:"fields,omitempty"`
	Delimiter string            `yaml:"delimiter,omitempty"`
	SkipHead  int               `yaml:"skip_head,omitempty"`
	RowOrder  string            `yaml:"row_order,omitempty"` // "old_to_new" (default) or "new_to_old"
}

func (f FormatSpec) merge(other FormatSpec) FormatSpec {
	merged := f
	if other.Date != "" {
		merged.Date = other.Date
	}
	if len(other.Fields) > 0 {
		merged.Fields = other.Fields
	}
	if other.Delimiter != "" {
		merged.Delimiter = other.Delimiter
	}
	if other.SkipHead != 0 {
		merged.SkipHead = other.SkipHead
	}
	if other.RowOrder != "" {
		merged.RowOrder = other.RowOrder
	}
	return merged
}

// CommodityDisplay overrides the pretty-printed style and minimum scale of
// one commodity in generated output.
type CommodityDisplay struct {
	Style string `yaml:"style,omitempty"`
	Scale *int32 `yaml:"scale,omitempty"`
}

func (d CommodityDisplay) merge(other CommodityDisplay) CommodityDisplay {
	merged := d
	if other.Style != "" {
		merged.Style = other.Style
	}
	if other.Scale != nil {
		merged.Scale = other.Scale
	}
	return merged
}

// OutputSpec overrides commodity display formatting in generated entries.
type OutputSpec struct {
	Default   CommodityDisplay            `yaml:"default,omitempty"`
	Overrides map[string]CommodityDisplay `yaml:"overrides,omitempty"`
}

func (o OutputSpec) merge(other OutputSpec) OutputSpec {
	overrides := make(map[string]CommodityDisplay, len(o.Overrides)+len(other.Overrides))
	for k, v := range o.Overrides {
		overrides[k] = v
	}
	for k, v := range other.Overrides {
		if cur, ok := overrides[k]; ok {
			overrides[k] = cur.merge(v)
		} else {
			overrides[k] = v
		}
	}
	return OutputSpec{Default: o.Default.merge(other.Default), Overrides: overrides}
}

// RewriteRule is one rule in a fragment's rewrite sequence; see Matcher and
// Extractor for how a sequence of these is evaluated against a record.
type RewriteRule struct {
	Matcher    Matcher                  `yaml:"matcher"`
	Pending    bool                     `yaml:"pending,omitempty"`
	Payee      string                   `yaml:"payee,omitempty"`
	Account    string                   `yaml:"account,omitempty"`
	Conversion *CommodityConversionSpec `yaml:"conversion,omitempty"`
}

// fragment is one YAML document in a config file, covering one path prefix.
type fragment struct {
	Path        string            `yaml:"path"`
	Encoding    string            `yaml:"encoding,omitempty"`
	Account     string            `yaml:"account,omitempty"`
	AccountType AccountType       `yaml:"account_type,omitempty"`
	Operator    string            `yaml:"operator,omitempty"`
	Commodity   CommoditySpec     `yaml:"commodity,omitempty"`
	Format      FormatSpec        `yaml:"format,omitempty"`
	Output      OutputSpec        `yaml:"output,omitempty"`
	Rewrite     []RewriteRule     `yaml:"rewrite,omitempty"`
}

func (f fragment) merge(other fragment) fragment {
	rewrite := make([]RewriteRule, 0, len(f.Rewrite)+len(other.Rewrite))
	rewrite = append(rewrite, f.Rewrite...)
	rewrite = append(rewrite, other.Rewrite...)
	merged := fragment{
		Path:        other.Path,
		Encoding:    f.Encoding,
		Account:     f.Account,
		AccountType: f.AccountType,
		Operator:    f.Operator,
		Commodity:   f.Commodity.merge(other.Commodity),
		Format:      f.Format.merge(other.Format),
		Output:      f.Output.merge(other.Output),
		Rewrite:     rewrite,
	}
	if other.Encoding != "" {
		merged.Encoding = other.Encoding
	}
	if other.Account != "" {
		merged.Account = other.Account
	}
	if other.AccountType != "" {
		merged.AccountType = other.AccountType
	}
	if other.Operator != "" {
		merged.Operator = other.Operator
	}
	return merged
}

// Entry is a fully-merged, validated config for one source file.
type Entry struct {
	Path        string
	Encoding    string
	Account     string
	AccountType AccountType
	Operator    string
	Commodity   CommoditySpec
	Format      FormatSpec
	Output      OutputSpec
	Rewrite     []RewriteRule
}

func (f fragment) intoEntry() (Entry, error) {
	if f.Encoding == "" {
		return Entry{}, &InvalidConfigError{Reason: "no encoding specified"}
	}
	if f.Account == "" {
		return Entry{}, &InvalidConfigError{Reason: "no account specified"}
	}
	if f.AccountType == "" {
		return Entry{}, &InvalidConfigError{Reason: "no account_type specified"}
	}
	if f.Commodity.Primary == "" {
		return Entry{}, &InvalidConfigError{Reason: "no commodity specified"}
	}
	return Entry{
		Path: f.Path, Encoding: f.Encoding, Account: f.Account, AccountType: f.AccountType,
		Operator: f.Operator, Commodity: f.Commodity, Format: f.Format, Output: f.Output, Rewrite: f.Rewrite,
	}, nil
}

// Set is the full sequence of fragments read from one or more config
// documents, covering potentially many target files.
type Set struct {
	fragments []fragment
}

// LoadYAML reads a config.Set from a sequence of YAML documents, one
// fragment per document (matching a multi-document YAML file, `---`
// separated).
func LoadYAML(source []byte) (*Set, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(source)))
	dec.KnownFields(true)
	var fragments []fragment
	for {
		var f fragment
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &InvalidConfigError{Reason: fmt.Sprintf("decode config fragment: %s", err)}
		}
		fragments = append(fragments, f)
	}
	return &Set{fragments: fragments}, nil
}

// Select returns the merged Entry applicable to target file path p, or nil
// if no fragment's path matches. Fragments whose path is a substring of p
// (both normalized to use '/') are collected, sorted by ascending path
// length, then folded left-to-right so more specific (longer) paths win.
func (s *Set) Select(p string) (*Entry, error) {
	normalized := filepathToSlash(p)
	var matched []fragment
	for _, f := range s.fragments {
		if f.Path == "" || strings.Contains(normalized, filepathToSlash(f.Path)) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}
	sort.SliceStable(matched, func(i, j int) bool { return len(matched[i].Path) < len(matched[j].Path) })
	merged := matched[0]
	for _, f := range matched[1:] {
		merged = merged.merge(f)
	}
	entry, err := merged.intoEntry()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func filepathToSlash(p string) string {
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}
