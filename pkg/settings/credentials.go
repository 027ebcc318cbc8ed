package settings

import (
	"context"
	"crypto/md5"
	"fmt"

	"github.com/google/uuid"
)

// OfflineAccessToken is what offline players authenticate with.
const OfflineAccessToken = "0"

// CredentialProvider returns an already-refreshed access token for a player.
type CredentialProvider interface {
	AccessToken(ctx context.Context, player PlayerProfile) (string, error)
}

// StaticCredentialProvider serves tokens read from configuration.
type StaticCredentialProvider struct {
	tokens map[string]string
}

// NewStaticCredentialProvider indexes tokens by player ID and username.
func NewStaticCredentialProvider(players []PlayerConfig) *StaticCredentialProvider {
	tokens := make(map[string]string, len(players)*2)
	for _, p := range players {
		if p.AccessToken == "" {
			continue
		}
		if p.ID != "" {
			tokens[p.ID] = p.AccessToken
		}
		tokens[p.Username] = p.AccessToken
	}
	return &StaticCredentialProvider{tokens: tokens}
}

func (p *StaticCredentialProvider) AccessToken(ctx context.Context, player PlayerProfile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if player.Offline() {
		return OfflineAccessToken, nil
	}
	if token, ok := p.tokens[player.ID]; ok {
		return token, nil
	}
	if token, ok := p.tokens[player.Username]; ok {
		return token, nil
	}
	return "", fmt.Errorf("no access token configured for %s", player.Username)
}

// OfflineUUID derives the stable UUID offline servers assign to name: an MD5
// name-based (version 3) UUID of "OfflinePlayer:<name>".
func OfflineUUID(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	id, err := uuid.FromBytes(sum[:])
	if err != nil {
		return ""
	}
	return id.String()
}
