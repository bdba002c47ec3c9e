package entity

import (
	"time"

	"github.com/shandysiswandi/sportsclub/internal/pkg/valueobject"
)

// DeliveryLog records one attempt to reach a member on a channel.
type DeliveryLog struct {
	ID               string
	Trigger          TriggerKey
	Channel          Channel
	Recipient        string
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CreateDeliveryLog struct {
	ID        string
	Trigger   TriggerKey
	Channel   Channel
	Recipient string
	Status    DeliveryStatus
}

type UpdateDeliveryLog struct {
	ID               string
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
}
