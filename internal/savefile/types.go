package savefile

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrPlayerNotFound means the account has no durable savefile.
var ErrPlayerNotFound = errors.New("player savefile not found")

// Savefile is the durable player record the ephemeral layer resolves into.
type Savefile struct {
	AccountID string    `json:"account_id"`
	ViewerID  int64     `json:"viewer_id"`
	Name      string    `json:"name"`
	Level     int32     `json:"level"`
	Coin      int64     `json:"coin"`
	CreatedAt time.Time `json:"created_at"`
}

// ClearPartyUnit is one slot of a saved quest-clearing party.
type ClearPartyUnit struct {
	UnitNo            int32 `json:"unit_no"`
	CharaID           int32 `json:"chara_id"`
	EquipDragonKeyID  int64 `json:"equip_dragon_key_id"`
	EquipWeaponBodyID int32 `json:"equip_weapon_body_id"`
	EditSkill1CharaID int32 `json:"edit_skill_1_chara_id"`
	EditSkill2CharaID int32 `json:"edit_skill_2_chara_id"`
}

// TimeAttackClear records a ranked-mode clear. PartyInfo is kept as a raw
// blob for manual inspection after the contest ends.
type TimeAttackClear struct {
	GameID    string          `json:"game_id"`
	ViewerID  int64           `json:"viewer_id"`
	TimeMS    int64           `json:"time_ms"`
	PartyInfo json.RawMessage `json:"party_info"`
}
