package prompt

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/huimingz/shipit-go/internal/log"
)

// Tier is a token volume band
type Tier struct {
	Emoji                string
	Label                string
	Hint                 string
	Description          string
	RequiresConfirmation bool
}

// tierBand pairs an exclusive upper bound with its tier. The last band has no bound.
type tierBand struct {
	below int
	tier  Tier
}

var tierBands = []tierBand{
	{5000, Tier{Emoji: "🟢", Label: "looking fresh", Hint: "instant response"}},
	{15000, Tier{Emoji: "🟡", Label: "totally fine", Hint: "1-2 seconds"}},
	{50000, Tier{Emoji: "🟠", Label: "still good", Hint: "3-5 seconds"}},
	{100000, Tier{
		Emoji:                "🔴",
		Label:                "yikes territory",
		Hint:                 "may hit rate limits",
		Description:          "This will take 10+ seconds and cost significantly more.",
		RequiresConfirmation: true,
	}},
	{-1, Tier{
		Label:                "an absolute unit 💀",
		Description:          "This exceeds most API limits and will be very expensive.",
		RequiresConfirmation: true,
	}},
}

// ClassifyTokens maps a token count to exactly one tier. Negative counts are treated as zero.
func ClassifyTokens(tokens int) Tier {
	for _, band := range tierBands {
		if band.below < 0 || tokens < band.below {
			return band.tier
		}
	}
	return tierBands[len(tierBands)-1].tier
}

// encodings are tried in order; the first one that loads does the counting
var encodings = []string{"o200k_base", "cl100k_base"}

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// loadEncoder reads the embedded BPE ranks once, without touching the network
func loadEncoder() *tiktoken.Tiktoken {
	encoderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		for _, name := range encodings {
			enc, err := tiktoken.GetEncoding(name)
			if err == nil {
				encoder = enc
				return
			}
			log.Debug("Failed to load %s encoding: %v", name, err)
		}
	})
	return encoder
}

// CountTokens counts the BPE tokens of text. If no encoding can be loaded it
// falls back to EstimateTokens.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if enc := loadEncoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateTokens(text)
}

// EstimateTokens approximates the token count of text.
// CJK ideographs run about 1.5 characters per token, everything else about 4.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	var cjk, other int
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			cjk++
		} else {
			other++
		}
	}

	tokens := cjk*2/3 + other/4
	if tokens < 1 {
		return 1
	}
	return tokens
}

// ChangeCountLabel is a short reaction to the number of changed files
func ChangeCountLabel(count int) string {
	switch {
	case count < 10:
		return "Nice!"
	case count < 50:
		return "Solid!"
	case count < 100:
		return "We cookin'!"
	default:
		return "Better buy your reviewers coffee!"
	}
}
