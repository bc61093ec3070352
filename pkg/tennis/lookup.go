package tennis

// IsTennisToken reports whether tokenID belongs to a tennis market in the
// current snapshot. Unknown tokens are not tennis.
func IsTennisToken(tokenID string) bool {
	return Global().IsTennisToken(tokenID)
}

// GetTennisTokenBuffer returns the price buffer for tokenID: 0.01 for tennis,
// 0 for everything else including unknown tokens.
func GetTennisTokenBuffer(tokenID string) float64 {
	return Global().TokenBuffer(tokenID)
}

// IsATPMarket is the former name of IsTennisToken.
func IsATPMarket(tokenID string) bool {
	return IsTennisToken(tokenID)
}

// GetATPTokenBuffer is the former name of GetTennisTokenBuffer.
func GetATPTokenBuffer(tokenID string) float64 {
	return GetTennisTokenBuffer(tokenID)
}
