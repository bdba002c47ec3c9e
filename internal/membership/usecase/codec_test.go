package usecase

import (
	"encoding/json"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
)

func encodeSession(sess *entity.Session) ([]byte, error) {
	return json.Marshal(sess)
}

func decodeSession(raw []byte, sess *entity.Session) error {
	return json.Unmarshal(raw, sess)
}
