package model

// Channel identifies one of the outreach modalities. The set is closed:
// dispatch selects behavior through a table keyed by Channel rather than
// open-ended type inspection.
type Channel string

const (
	ChannelCommunication Channel = "communication"
	ChannelPoster        Channel = "poster"
	ChannelAnnouncement  Channel = "announcement"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelCommunication, ChannelPoster, ChannelAnnouncement:
		return true
	}
	return false
}

// ActionRecord captures one dispatch attempt, success or failure.
// Records are immutable once appended to the action history.
type ActionRecord struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Channel   Channel        `json:"channel"`
	Params    map[string]any `json:"params,omitempty"`
	Success   bool           `json:"success"`
	Reason    string         `json:"reason,omitempty"`
}
