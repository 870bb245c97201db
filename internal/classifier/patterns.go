// Package classifier scores message content: user allow/deny lists first,
// then local regular-expression patterns, then an optional generative
// provider, then a fail-open default.
package classifier

import (
	"regexp"

	"github.com/rgdevment/spamguard/internal/domain"
)

// LibraryVersion identifies the pattern revision recorded in explanations
// and logs.
const LibraryVersion = "2024.11"

const (
	// Betting in set 1 and betting/phishing/scam in set 2 are trusted on a
	// keyword hit alone. Every other category gets TentativeConfidence and
	// needs corroboration.
	setOneBettingConfidence  = 0.95
	setTwoTerminalConfidence = 0.90
	TentativeConfidence      = 0.60
)

// CategoryPatterns is one category's regexes inside a set.
type CategoryPatterns struct {
	Category   domain.Category
	Confidence float64
	Patterns   []*regexp.Regexp
}

// PatternSet is an ordered list of categories for one language.
type PatternSet struct {
	Name       string
	Categories []CategoryPatterns
}

// Library is the read-only collection of pattern sets, evaluated in order.
// A Library is never mutated after construction and is safe for
// concurrent use.
type Library struct {
	Version string
	Sets    []PatternSet
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// DefaultLibrary returns the built-in Turkish (set 1) and English (set 2)
// patterns. All expressions are written against lower-cased input. Each
// category lists its core keywords first; the longer phrases after them
// widen recall without changing which keyword wins.
func DefaultLibrary() *Library {
	return &Library{
		Version: LibraryVersion,
		Sets:    []PatternSet{turkishSet(), englishSet()},
	}
}

func turkishSet() PatternSet {
	return PatternSet{
		Name: "tr",
		Categories: []CategoryPatterns{
			{
				Category:   domain.CategoryBetting,
				Confidence: setOneBettingConfidence,
				Patterns: compile(
					`bahis`, `iddaa`, `casino`, `slot`, `rulet`,
					`canlı\s*bahis`, `yüksek\s*oran`, `bedava\s*bonus`,
					`free\s*bet`, `kumar`, `jackpot`, `spin`,
					`canli casino`,
					`deneme bonusu`,
					`yatırımsız bonus|yatirimsiz bonus`,
					`(çevrimsiz|cevrimsiz) bonus`,
					`yuksek oran`,
					`kupon(unu|u)? (yap|oyna)`,
				),
			},
			{
				Category:   domain.CategoryPhishing,
				Confidence: TentativeConfidence,
				Patterns: compile(
					`şifre.*güncelle`, `hesab.*doğrula`, `acil.*giriş`,
					`banka.*bilgi`, `kredi\s*kart`, `cvv`, `3d\s*secure`,
					`tıkla.*kazan`, `link.*tıkla`,
					`hesabınız (askıya|bloke|kapatıl)`,
					`(şifrenizi|sifrenizi) (güncelle|guncelle|doğrula|dogrula)`,
					`kimlik bilgilerinizi (güncelle|guncelle|doğrula|dogrula|girin)`,
					`kartınız (bloke|askıya|kapatıl)`,
					`e-?devlet.{0,40}(tıkla|tikla|giriş|giris)`,
				),
			},
			{
				Category:   domain.CategoryScam,
				Confidence: TentativeConfidence,
				Patterns: compile(
					`para\s*kazan`, `hemen\s*kazan`, `garantili\s*gelir`,
					`yatırım.*getiri`, `kripto.*fırsat`, `bitcoin.*kazan`,
					`zengin\s*ol`, `pasif\s*gelir`,
					`acil para`,
					`iban(ınıza|iniza|a)? (gönder|gonder|yatır|yatir)`,
					`gümrük (ücreti|vergisi)|gumruk (ucreti|vergisi)`,
					`kargo(nuz)? (teslim edilemedi|bekletiliyor)`,
				),
			},
			{
				Category:   domain.CategoryLottery,
				Confidence: TentativeConfidence,
				Patterns: compile(
					`çekiliş.*kazan`, `piyango`, `şanslı\s*numara`,
					`ödül.*kazan`, `hediye.*kazan`, `milyon.*kazan`,
					`cekilis.{0,40}kazandiniz`,
					`ikramiye`,
					`(hediye|ödül|odul) kazandınız`,
					`tebrikler.{0,40}(kazandınız|kazandiniz)`,
				),
			},
			{
				Category:   domain.CategoryPromotional,
				Confidence: TentativeConfidence,
				Patterns: compile(
					`kampanya`, `indirim`, `%\d+\s*off`, `fırsat`,
					`son\s*gün`, `acele\s*et`, `kaçırma`,
					`firsati kacirma`,
					`ret yaz`,
				),
			},
		},
	}
}

func englishSet() PatternSet {
	return PatternSet{
		Name: "en",
		Categories: []CategoryPatterns{
			{
				Category:   domain.CategoryBetting,
				Confidence: setTwoTerminalConfidence,
				Patterns: compile(
					`betting`, `casino`, `poker`, `slots`, `gambling`,
					`free\s*spins`, `bonus\s*code`, `jackpot`,
					`\bsports ?book\b`,
					`\bfree spin\b`,
					`\bbet(ting)?\b.{0,40}\b(odds|bonus|win)`,
					`\bdeposit bonus\b`,
				),
			},
			{
				Category:   domain.CategoryPhishing,
				Confidence: setTwoTerminalConfidence,
				Patterns: compile(
					`verify\s*account`, `update\s*password`, `confirm\s*identity`,
					`suspended\s*account`, `click\s*here\s*now`, `urgent\s*action`,
					`verify your (account|identity|information|details)`,
					`your account (has been|will be|is) (suspended|locked|disabled|closed|restricted)`,
					`(click|tap) (here|the link|below|this link) to (verify|confirm|update|log ?in|unlock|restore)`,
					`update your (payment|billing|bank|card) (details|information|info)`,
					`unusual (sign-?in|login) activity`,
					`confirm your (password|credentials|account|pin)`,
				),
			},
			{
				Category:   domain.CategoryScam,
				Confidence: setTwoTerminalConfidence,
				Patterns: compile(
					`make\s*money`, `earn\s*from\s*home`, `guaranteed\s*income`,
					`crypto\s*opportunity`, `investment\s*return`, `get\s*rich`,
					`wire (transfer|the money)`,
					`gift ?cards?.{0,40}(pay|send|buy)`,
					`(package|parcel|delivery).{0,60}(on hold|could not be delivered|failed).{0,60}(fee|pay|click)`,
					`send (me )?(your )?(otp|verification code|one-time (code|password))`,
					`(tax refund|irs).{0,40}(claim|click)`,
					`need(s)? money urgently|urgently need(s)? money`,
				),
			},
			{
				Category:   domain.CategoryLottery,
				Confidence: TentativeConfidence,
				Patterns: compile(
					`you\s*won`, `prize\s*winner`, `lottery\s*winner`,
					`claim\s*your\s*prize`, `lucky\s*number`,
					`you('ve| have) won`,
					`(claim|collect) your (prize|reward|winnings)`,
					`\blottery\b`,
					`congratulations.{0,40}(winner|won|selected)`,
				),
			},
			{
				Category:   domain.CategoryInvestment,
				Confidence: TentativeConfidence,
				Patterns: compile(
					`guaranteed (returns?|profits?)`,
					`(double|triple) your (money|investment|bitcoin|crypto)`,
					`\d+% (daily|weekly|monthly) (returns?|profits?)`,
					`(forex|crypto) (signals?|trading) (group|vip)`,
				),
			},
			{
				Category:   domain.CategoryMalware,
				Confidence: TentativeConfidence,
				Patterns: compile(
					`\.apk\b`,
					`download (this|the) (app|apk)`,
					`your (device|phone) (is|has been) infected`,
				),
			},
			{
				Category:   domain.CategoryPromotional,
				Confidence: TentativeConfidence,
				Patterns: compile(
					`\d+% off\b`,
					`limited[- ]time offer`,
					`\bunsubscribe\b`,
					`reply stop`,
					`(exclusive|special) (offer|deal|discount)`,
					`\bbuy now\b`,
				),
			},
		},
	}
}
