package model

// Kind identifies the field or container variant a Node describes.
type Kind string

const (
	KindText         Kind = "text"
	KindTextarea     Kind = "textarea"
	KindNumber       Kind = "number"
	KindSelect       Kind = "select"
	KindRadio        Kind = "radio"
	KindCheckbox     Kind = "checkbox"
	KindCheckboxList Kind = "checkbox_list"
	KindToggle       Kind = "toggle"
	KindDate         Kind = "date"
	KindDateTime     Kind = "datetime"
	KindTime         Kind = "time"
	KindFile         Kind = "file"
	KindTags         Kind = "tags"
	KindKeyValue     Kind = "key_value"
	KindHidden       Kind = "hidden"
	KindColor        Kind = "color"
	KindRichEditor   Kind = "rich_editor"
	KindPinInput     Kind = "pin_input"
	KindRate         Kind = "rate"
	KindIconPicker   Kind = "icon_picker"
	KindDateRange    Kind = "date_range"
	KindRepeater     Kind = "repeater"
	KindBuilder      Kind = "builder"
	KindSection      Kind = "section"
	KindGrid         Kind = "grid"
	KindTabs         Kind = "tabs"
	KindTab          Kind = "tab"
)

var knownKinds = map[Kind]struct{}{
	KindText: {}, KindTextarea: {}, KindNumber: {}, KindSelect: {}, KindRadio: {},
	KindCheckbox: {}, KindCheckboxList: {}, KindToggle: {}, KindDate: {},
	KindDateTime: {}, KindTime: {}, KindFile: {}, KindTags: {}, KindKeyValue: {},
	KindHidden: {}, KindColor: {}, KindRichEditor: {}, KindPinInput: {},
	KindRate: {}, KindIconPicker: {}, KindDateRange: {}, KindRepeater: {}, KindBuilder: {},
	KindSection: {}, KindGrid: {}, KindTabs: {}, KindTab: {},
}

// Known reports whether the kind is one of the built-in variants.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// IsLayout reports whether the kind only groups other nodes. Layout nodes do
// not bind state; their children belong to the enclosing state scope.
func (k Kind) IsLayout() bool {
	switch k {
	case KindSection, KindGrid, KindTabs, KindTab:
		return true
	default:
		return false
	}
}

// IsCollection reports whether the kind holds a list of items, each item
// bound to its own child schema.
func (k Kind) IsCollection() bool {
	return k == KindRepeater || k == KindBuilder
}

// AcceptsOptions reports whether the kind renders a list of choices.
func (k Kind) AcceptsOptions() bool {
	switch k {
	case KindSelect, KindRadio, KindCheckboxList:
		return true
	default:
		return false
	}
}

// Kinds returns the built-in kinds in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindText, KindTextarea, KindNumber, KindSelect, KindRadio, KindCheckbox,
		KindCheckboxList, KindToggle, KindDate, KindDateTime, KindTime, KindFile,
		KindTags, KindKeyValue, KindHidden, KindColor, KindRichEditor, KindPinInput,
		KindRate, KindIconPicker, KindDateRange, KindRepeater, KindBuilder,
		KindSection, KindGrid, KindTabs, KindTab,
	}
}
