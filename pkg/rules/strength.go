package rules

import (
	"unicode/utf8"

	"github.com/goliatone/go-authflow/pkg/i18n"
)

// Level buckets a password strength score.
type Level int

const (
	LevelEmpty Level = iota
	LevelWeak
	LevelFair
	LevelGood
	LevelStrong
)

// MaxStrengthScore caps Strength.Score.
const MaxStrengthScore = 4

// Strength is the advisory score shown next to password inputs. It does not
// affect validation.
type Strength struct {
	Score int
	Level Level
}

// Key returns the message key for the level label. LevelEmpty has no label.
func (l Level) Key() string {
	switch l {
	case LevelWeak:
		return i18n.KeyStrengthWeak
	case LevelFair:
		return i18n.KeyStrengthFair
	case LevelGood:
		return i18n.KeyStrengthGood
	case LevelStrong:
		return i18n.KeyStrengthStrong
	default:
		return ""
	}
}

func (l Level) String() string {
	switch l {
	case LevelWeak:
		return "weak"
	case LevelFair:
		return "fair"
	case LevelGood:
		return "good"
	case LevelStrong:
		return "strong"
	default:
		return "empty"
	}
}

// PasswordStrength scores password: one point each for length >= 8,
// length >= 12, a lowercase letter, an uppercase letter, a digit and any
// other character, capped at MaxStrengthScore.
func PasswordStrength(password string) Strength {
	if password == "" {
		return Strength{Level: LevelEmpty}
	}

	score := 0
	n := utf8.RuneCountInString(password)
	if n >= 8 {
		score++
	}
	if n >= 12 {
		score++
	}

	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}
	for _, present := range []bool{lower, upper, digit, other} {
		if present {
			score++
		}
	}
	if score > MaxStrengthScore {
		score = MaxStrengthScore
	}

	return Strength{Score: score, Level: levelFor(score)}
}

func levelFor(score int) Level {
	switch {
	case score <= 1:
		return LevelWeak
	case score == 2:
		return LevelFair
	case score == 3:
		return LevelGood
	default:
		return LevelStrong
	}
}
