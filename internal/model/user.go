package model

import "time"

type User struct {
	ID        int64     `json:"id"`
	SecretKey string    `json:"-"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}
