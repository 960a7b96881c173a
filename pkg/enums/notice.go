package enums

// NoticeLevel classifies a one-shot user-visible notice.
type NoticeLevel string

const (
	NoticeLevelSuccess NoticeLevel = "success"
	NoticeLevelInfo    NoticeLevel = "info"
	NoticeLevelError   NoticeLevel = "error"
)

// String implements fmt.Stringer.
func (n NoticeLevel) String() string {
	return string(n)
}
