package chatchain

// Memory is a session's conversational state: the live window plus the
// summary of everything older.
type Memory struct {
	Recent  []Message
	Summary string
}

// SplitWindow returns the messages outside the last window entries and the
// window itself, both oldest first.
func SplitWindow(msgs []Message, window int) (older, recent []Message) {
	if window <= 0 || len(msgs) <= window {
		return nil, msgs
	}
	cut := len(msgs) - window
	return msgs[:cut], msgs[cut:]
}

// Unfolded drops the first folded messages, which the summary already
// covers.
func Unfolded(older []Message, folded int) []Message {
	if folded <= 0 {
		return older
	}
	if folded >= len(older) {
		return nil
	}
	return older[folded:]
}

// NeedsSummary reports whether a session with count stored messages should
// refresh its summary before the next turn.
func NeedsSummary(count int64, threshold int) bool {
	return threshold > 0 && count >= int64(threshold)
}
