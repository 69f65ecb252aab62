package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ClassifiedRosterKey holds the full roster with risk levels already computed.
func (r *CacheKeyStruct) ClassifiedRosterKey() string {
	return "roster:classified"
}

// SessionKey maps a token's JTI to its username.
func (r *CacheKeyStruct) SessionKey(jti string) string {
	return fmt.Sprintf("session:%s", jti)
}

// UserSessionsKey is the set of live JTIs for a user, used to revoke them all at once.
func (r *CacheKeyStruct) UserSessionsKey(username string) string {
	return fmt.Sprintf("user:%s:sessions", username)
}

// RosterEventsChannel is the Redis Pub/Sub channel roster mutations are published on.
func (r *CacheKeyStruct) RosterEventsChannel() string {
	return "roster:events"
}

var CacheKey = NewCacheKeyStruct()
