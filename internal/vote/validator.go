// Package vote はルームメイト投票の検証と記録を提供する。
package vote

import "github.com/hitoshi/hostelmatch/internal/model"

// Outcome は投票の判定結果。
type Outcome int

const (
	// Accepted は投票が受理されたことを示す。
	Accepted Outcome = iota
	// Rejected は投票が拒否されたことを示す。
	Rejected
)

// 拒否理由
const (
	ReasonSelfVote  = "self-vote not allowed"
	ReasonDuplicate = "match already exists"
)

// Decision はValidateの判定結果。
// Acceptedの場合はMatchに作成すべきマッチが入り、Rejectedの場合はReasonに理由が入る。
type Decision struct {
	Outcome Outcome
	Reason  string
	Match   model.Match
}

// Accepted は投票が受理されたかを返す。
func (d Decision) Accepted() bool {
	return d.Outcome == Accepted
}

// Err は拒否理由をクライアント向けのAPIErrorに変換する。
// 受理された場合はnilを返す。
func (d Decision) Err() *model.APIError {
	if d.Outcome == Accepted {
		return nil
	}
	switch d.Reason {
	case ReasonSelfVote:
		return model.NewSelfVoteError()
	default:
		return model.NewDuplicateMatchError()
	}
}

// Validate は投票者 voter がルームメイト roommate に投票できるかを判定する。
//
// 自分自身への投票は既存マッチの有無に関わらず拒否する。
// existing に voter と roommate の順序なしペアが含まれる場合は重複として拒否する。
// 受理したマッチは投票時の順序 (voter, roommate) をそのまま保持する。
func Validate(voter, roommate string, existing []model.Match) Decision {
	if voter == roommate {
		return Decision{Outcome: Rejected, Reason: ReasonSelfVote}
	}

	for _, m := range existing {
		if m.SamePair(voter, roommate) {
			return Decision{Outcome: Rejected, Reason: ReasonDuplicate}
		}
	}

	return Decision{
		Outcome: Accepted,
		Match:   model.Match{Friend1: voter, Friend2: roommate},
	}
}
