package packet

// Client command ids. Responses reuse the request id; server pushes use the
// NOTE_* ids below.
const (
	CMD_LOGIN     uint32 = 1001
	CMD_HEARTBEAT uint32 = 1002

	CMD_GET_PET_INFO uint32 = 2301
	CMD_GET_PET_LIST uint32 = 2303

	CMD_USE_SKILL         uint32 = 2405
	CMD_USE_PET_ITEM      uint32 = 2406
	CMD_FIGHT_NPC_MONSTER uint32 = 2408
	CMD_ESCAPE_FIGHT      uint32 = 2410

	CMD_GET_ITEM_LIST uint32 = 2610
)

// Server push ids.
const (
	NOTE_START_FIGHT uint32 = 2503
	NOTE_USE_SKILL   uint32 = 2505
	NOTE_FIGHT_OVER  uint32 = 2506
)

// Result codes carried in the header's result field. 0 is success.
const (
	ResultOK              int32 = 0
	ResultUnavailable     int32 = 10001 // a required session capability is missing
	ResultInternalError   int32 = 10002
	ResultBadRequest      int32 = 10003
	ResultNotInBattle     int32 = 10004
	ResultSkillNotOwned   int32 = 10005
	ResultPetNotFound     int32 = 10006
	ResultLoginFailed     int32 = 10007
	ResultAlreadyInBattle int32 = 10008
	ResultItemNotOwned    int32 = 10009
	ResultPetFainted      int32 = 10010
)
