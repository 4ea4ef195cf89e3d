package models

// Profile is the view of another person's profile.
type Profile struct {
	Person           *Person         `json:"personDTO"`
	FriendList       []PersonSummary `json:"friend_list"`
	FriendshipStatus ViewerStatus    `json:"friendship_status,omitempty"`
}

// MyProfile is the caller's own profile with every relationship list they manage.
type MyProfile struct {
	Person            *Person         `json:"personDTO"`
	FriendList        []PersonSummary `json:"friend_list"`
	PendingFriendList []PersonSummary `json:"pending_friend_list"`
	BlockedList       []PersonSummary `json:"blocked_list"`
}
