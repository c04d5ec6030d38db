package dto

import (
	"time"

	"github.com/codetrust-ai/codetrust-api/app/entity"
)

type LoginResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
	ExpiresIn int64
}
