package model

// DefaultIcons is the picker's icon set when a node sets no "icons" prop.
var DefaultIcons = []string{
	"home", "user", "users", "settings", "search", "heart", "star", "mail",
	"phone", "message-square", "bell", "calendar", "clock", "map-pin", "tag",
	"folder", "file", "image", "video", "music", "download", "upload", "trash",
	"edit", "check", "x", "plus", "minus", "chevron-up", "chevron-down",
	"chevron-left", "chevron-right", "arrow-up", "arrow-down", "arrow-left",
	"arrow-right", "external-link", "link", "copy", "share", "bookmark", "flag",
	"shield", "lock", "unlock", "eye", "eye-off", "help-circle", "info",
	"alert-circle", "alert-triangle", "check-circle", "x-circle", "sun", "moon",
	"cloud", "zap", "droplet", "flame", "shopping-cart", "shopping-bag",
	"credit-card", "dollar-sign", "briefcase", "layers", "grid", "list", "menu",
	"more-horizontal",
}

// Icons returns the icons an icon picker offers.
func (n *Node) Icons() []string {
	if icons := n.StringsProp("icons"); len(icons) > 0 {
		return icons
	}
	return append([]string(nil), DefaultIcons...)
}
