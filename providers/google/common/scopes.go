package common

const (
	AuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	TokenURL = "https://oauth2.googleapis.com/token"
	// APIURL is the YouTube Data API origin; upload paths hang off it too.
	APIURL = "https://youtube.googleapis.com"
)

const (
	ScopeYouTube         = "https://www.googleapis.com/auth/youtube"
	ScopeYouTubeReadonly = "https://www.googleapis.com/auth/youtube.readonly"
	ScopeYouTubeUpload   = "https://www.googleapis.com/auth/youtube.upload"
	ScopeYouTubeForceSSL = "https://www.googleapis.com/auth/youtube.force-ssl"
)

// AuthParams asks Google for an offline grant so a refresh token is issued
// on every consent.
func AuthParams() map[string]string {
	return map[string]string{
		"access_type": "offline",
		"prompt":      "consent",
	}
}

func IdentityScopes() []string {
	return []string{ScopeYouTubeReadonly}
}

func PublishScopes() []string {
	return []string{ScopeYouTubeForceSSL, ScopeYouTubeUpload, ScopeYouTubeReadonly, ScopeYouTube}
}
