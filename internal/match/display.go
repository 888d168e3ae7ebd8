package match

// Values longer than MaxDisplayLength characters are cut to
// TruncatedLength characters followed by an ellipsis when shown.
const (
	MaxDisplayLength = 450
	TruncatedLength  = 448
	Ellipsis         = "..."
)

// DisplayValue shortens v for display. The stored value is not affected.
func DisplayValue(v string) string {
	if len(v) <= MaxDisplayLength {
		return v
	}
	r := []rune(v)
	if len(r) <= MaxDisplayLength {
		return v
	}
	return string(r[:TruncatedLength]) + Ellipsis
}
