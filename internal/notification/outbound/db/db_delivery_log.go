package db

import (
	"context"

	"github.com/shandysiswandi/sportsclub/internal/notification/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/valueobject"
)

const (
	createDeliveryLog = `INSERT INTO notification_delivery_logs (id, trigger, channel, recipient, status)
VALUES ($1, $2, $3, $4, $5)`

	updateDeliveryLogStatus = `UPDATE notification_delivery_logs
SET status = $2, provider_response = $3, updated_at = NOW()
WHERE id = $1`

	getDeliveryLog = `SELECT id, trigger, channel, recipient, status, provider_response, created_at, updated_at
FROM notification_delivery_logs WHERE id = $1`
)

func (s *DB) CreateDeliveryLog(ctx context.Context, dl entity.CreateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createDeliveryLog,
		dl.ID, dl.Trigger.String(), dl.Channel.String(), dl.Recipient, dl.Status.String())
	return s.mapError(err)
}

func (s *DB) UpdateDeliveryLogStatus(ctx context.Context, u entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLogStatus")
	defer func() { s.endSpan(span, err) }()

	resp := u.ProviderResponse
	if resp == nil {
		resp = valueobject.JSONMap{}
	}

	tag, err := s.conn.Exec(ctx, updateDeliveryLogStatus, u.ID, u.Status.String(), resp)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) GetDeliveryLog(ctx context.Context, id string) (_ *entity.DeliveryLog, err error) {
	ctx, span := s.startSpan(ctx, "GetDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	var (
		dl                       entity.DeliveryLog
		trigger, channel, status string
	)
	err = s.conn.QueryRow(ctx, getDeliveryLog, id).Scan(
		&dl.ID, &trigger, &channel, &dl.Recipient, &status, &dl.ProviderResponse, &dl.CreatedAt, &dl.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	dl.Trigger = entity.TriggerKey(trigger)
	dl.Channel = entity.Channel(channel)
	dl.Status = entity.DeliveryStatus(status)

	return &dl, nil
}
