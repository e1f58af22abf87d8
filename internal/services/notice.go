package services

import "sync"

// NoticeKind discriminates user-facing notifications.
type NoticeKind string

const (
	// NoticeSuccess reports a completed operation.
	NoticeSuccess NoticeKind = "success"
	// NoticeError reports a failed operation.
	NoticeError NoticeKind = "error"
	// NoticePartial reports an operation that completed its primary effect
	// but failed a follow-up, e.g. post created but photo upload failed.
	NoticePartial NoticeKind = "partial"
)

// Notice is a transient, user-dismissable notification. Kind replaces
// string-matching on the message text for error detection.
type Notice struct {
	Kind NoticeKind
	Text string
}

// noticeBoard holds the latest notice for a service. Cache mutations always
// happen before the notice is set, so an observer that reacts to the notice
// sees the new cache state.
type noticeBoard struct {
	mu     sync.Mutex
	notice *Notice
}

func (b *noticeBoard) set(kind NoticeKind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = &Notice{Kind: kind, Text: text}
}

// Notice returns the current notice, or nil when none is pending.
func (b *noticeBoard) Notice() *Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice
}

// ClearNotice dismisses the current notice.
func (b *noticeBoard) ClearNotice() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = nil
}
