package entity

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

func (c Channel) String() string {
	return string(c)
}

type DeliveryStatus string

const (
	DeliveryStatusQueued DeliveryStatus = "queued"
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

type TriggerKey string

const (
	TriggerKeyMemberWelcome TriggerKey = "member_welcome"
)

func (tk TriggerKey) String() string {
	return string(tk)
}
