package ws

// RoomKind separates club broadcast channels from per-user inbox rooms so a
// club id and a user id that collide as strings can never share a broadcast
// group.
type RoomKind uint8

const (
	RoomClub RoomKind = iota
	RoomInbox
)

// RoomID identifies a broadcast group: a club channel or a user's inbox.
type RoomID struct {
	Kind RoomKind
	ID   string
}

// ClubRoom is the broadcast group for one club's chat channel.
func ClubRoom(clubID string) RoomID { return RoomID{Kind: RoomClub, ID: clubID} }

// InboxRoom is the private group delivering direct messages to every live
// session of one user.
func InboxRoom(userID string) RoomID { return RoomID{Kind: RoomInbox, ID: userID} }
