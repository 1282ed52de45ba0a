package serialize

import "github.com/goliatone/go-formkit/pkg/model"

// kindDefaults returns the kind-specific props a renderer expects even when
// the node does not set them.
func kindDefaults(node *model.Node) PropertyMap {
	switch node.Kind {
	case model.KindSelect:
		searchable := node.BoolProp("searchable", false)
		return PropertyMap{
			"searchable":             searchable,
			"multiple":               false,
			"native":                 !searchable,
			"preload":                false,
			"searchDebounce":         1000,
			"loadingMessage":         "Loading...",
			"noSearchResultsMessage": "No results found.",
			"searchPrompt":           "Start typing to search...",
			"searchingMessage":       "Searching...",
		}
	case model.KindRadio, model.KindCheckboxList:
		return PropertyMap{"inline": false}
	case model.KindRepeater:
		return PropertyMap{
			"addButtonLabel":    "Add",
			"deleteButtonLabel": "Delete",
			"reorderable":       false,
			"collapsible":       false,
			"cloneable":         false,
			"deletable":         true,
		}
	case model.KindBuilder:
		return PropertyMap{
			"addActionLabel": "Add Block",
			"deletable":      true,
			"reorderable":    true,
			"collapsible":    false,
			"collapsed":      false,
			"cloneable":      false,
			"blockNumbers":   true,
		}
	case model.KindFile:
		return PropertyMap{
			"disk":       "public",
			"directory":  "",
			"visibility": "public",
			"multiple":   false,
			"deletable":  true,
		}
	case model.KindTags:
		return PropertyMap{"separator": ","}
	case model.KindGrid:
		return PropertyMap{"columns": 2}
	case model.KindRichEditor:
		return PropertyMap{
			"toolbarButtons":     []string{},
			"floatingToolbars":   []string{},
			"mergeTags":          []string{},
			"minHeight":          nil,
			"maxHeight":          nil,
			"json":               false,
			"showCharacterCount": false,
			"showWordCount":      false,
			"fileAttachments": PropertyMap{
				"disk":       "public",
				"directory":  "",
				"visibility": "public",
			},
		}
	case model.KindPinInput:
		return PropertyMap{
			"length":    4,
			"mask":      false,
			"otp":       false,
			"inputType": "numeric",
			"align":     "left",
		}
	case model.KindRate:
		return PropertyMap{
			"maxRating": 5,
			"allowHalf": false,
			"icon":      "star",
			"color":     nil,
			"showValue": false,
		}
	case model.KindIconPicker:
		return PropertyMap{
			"icons":        node.Icons(),
			"searchable":   true,
			"placeholder":  "Select an icon...",
			"gridColumns":  8,
			"showIconName": true,
		}
	case model.KindDateRange:
		return PropertyMap{
			"minDate":        nil,
			"maxDate":        nil,
			"locale":         "en",
			"numberOfMonths": 2,
			"closeOnSelect":  false,
		}
	}
	return PropertyMap{}
}
