package model

import "time"

// Interest 관심: sender is interested in recipient.
type Interest struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"interest_id"`
	SenderID    ServiceID `gorm:"not null;index:idx_interest_sender;uniqueIndex:ux_interest_pair" json:"sender_id"`
	RecipientID ServiceID `gorm:"not null;index:idx_interest_recipient;uniqueIndex:ux_interest_pair" json:"recipient_id"`
	// ux_interest_pair = (sender_id, recipient_id)
	IsBan     bool      `gorm:"not null;default:false" json:"is_ban"`
	CreatedAt time.Time `json:"created_at"`
}

func (Interest) TableName() string { return "interests" }

// NetworkStatus is the lifecycle state of a network edge.
type NetworkStatus string

const (
	NetworkPending  NetworkStatus = "PENDING"
	NetworkAccepted NetworkStatus = "ACCEPTED"
	NetworkRejected NetworkStatus = "REJECTED"
)

// Network is a connection request that becomes a mutual connection once accepted.
type Network struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"network_id"`
	SenderID    ServiceID `gorm:"not null;index:idx_network_sender" json:"sender_id"`
	RecipientID ServiceID `gorm:"not null;index:idx_network_recipient" json:"recipient_id"`
	// one edge per unordered pair
	PairLow   ServiceID     `gorm:"not null;uniqueIndex:ux_network_pair" json:"-"`
	PairHigh  ServiceID     `gorm:"not null;uniqueIndex:ux_network_pair" json:"-"`
	Status    NetworkStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Network) TableName() string { return "networks" }

// Involves reports whether id is one of the two ends of the edge.
func (n *Network) Involves(id ServiceID) bool {
	return n.SenderID == id || n.RecipientID == id
}

// Other returns the end of the edge that is not id.
func (n *Network) Other(id ServiceID) ServiceID {
	if n.SenderID == id {
		return n.RecipientID
	}
	return n.SenderID
}

// Block 차단: blocker refuses interaction with blocked.
type Block struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"block_id"`
	BlockerID ServiceID `gorm:"not null;index:idx_block_blocker;uniqueIndex:ux_block_pair" json:"blocker_id"`
	BlockedID ServiceID `gorm:"not null;uniqueIndex:ux_block_pair" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Block) TableName() string { return "blocks" }

// RelationStatus is the caller-relative view of the network edge between two services.
type RelationStatus string

const (
	RelationSelf            RelationStatus = "SELF"
	RelationNone            RelationStatus = "NO_RELATION"
	RelationConnected       RelationStatus = "CONNECTED"
	RelationPendingSent     RelationStatus = "PENDING_SENT"
	RelationPendingReceived RelationStatus = "PENDING_RECEIVED"
	RelationRejected        RelationStatus = "REJECTED"
	RelationUnknown         RelationStatus = "UNKNOWN"
)
