// Package follow derives the follow relationship label between the viewer and
// another user from the two one-directional follow requests.
//
// The label is never stored. Keep the (sent, received) pair as the source of
// truth and call StatusFor whenever the label is needed.
package follow

type Status string

const (
	StatusFollow     Status = "follow"
	StatusFollowing  Status = "following"
	StatusRequested  Status = "requested"
	StatusFollowBack Status = "followBack"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
)

// Request is one direction of a follow relationship.
type Request struct {
	Status RequestStatus `json:"status"`
}

// StatusFor derives the label shown to the viewer. sent is the viewer's
// request to the other user, received the other user's request to the
// viewer; either may be nil. First match wins:
//
//	sent accepted  -> following
//	sent pending   -> requested
//	any received   -> followBack
//	otherwise      -> follow
func StatusFor(sent, received *Request) Status {
	if sent != nil {
		switch sent.Status {
		case RequestAccepted:
			return StatusFollowing
		case RequestPending:
			return StatusRequested
		}
	}
	if received != nil {
		return StatusFollowBack
	}
	return StatusFollow
}

type Action string

const (
	ActionSend     Action = "send"
	ActionCancel   Action = "cancel"
	ActionUnfollow Action = "unfollow"
)

// NextAction is the request a click on the follow control issues.
func NextAction(s Status) Action {
	switch s {
	case StatusFollowing:
		return ActionUnfollow
	case StatusRequested:
		return ActionCancel
	default:
		return ActionSend
	}
}

// Apply returns the viewer's sent request as it looks once action succeeds.
// Feed the result back into StatusFor to get the optimistic label; the
// received side is untouched by any viewer action.
func Apply(a Action, sent *Request) *Request {
	if a == ActionSend {
		return &Request{Status: RequestPending}
	}
	return nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusFollow, StatusFollowing, StatusRequested, StatusFollowBack:
		return true
	}
	return false
}
