package event

const MemberRegisteredDestination string = "member.registered"
const MemberRegisteredConsumerNotification string = "member_registered_notification"

// MemberRegisteredMessage is published once a registration is finalized.
type MemberRegisteredMessage struct {
	UserID    int64  `json:"user_id,string"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
