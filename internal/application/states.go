package application

// Conversation steps. A user with no stored state is idle. Every
// multi-step flow can be abandoned with /cancel, which discards the
// session's scratch data.
//
// Flow outline:
//
//	idle -> StepAwaitingGroupName        (admin: create group)
//	idle -> StepAwaitingGroupMember      (admin: add member, scratch: group)
//	idle -> StepAwaitingGroupRemoval     (admin: remove member, scratch: group)
//	idle -> StepAwaitingBroadcast        (admin: compose broadcast)
//	idle -> StepAwaitingBroadcastEdit    (admin: edit, scratch: broadcast_id)
//	idle -> StepAwaitingCodeCount        (admin: generate codes)
//	idle -> StepAwaitingPollQuestion     (admin: new poll)
//	StepAwaitingPollQuestion -> StepAwaitingPollOption (scratch: question, options)
//
// Invalid input re-enters the same step with a corrective prompt; success
// resolves back to idle.
const (
	StepAwaitingGroupName     = "awaiting_group_name"
	StepAwaitingGroupMember   = "awaiting_group_member"
	StepAwaitingGroupRemoval  = "awaiting_group_member_removal"
	StepAwaitingBroadcast     = "awaiting_broadcast_message"
	StepAwaitingBroadcastEdit = "awaiting_broadcast_edit"
	StepAwaitingCodeCount     = "awaiting_code_count"
	StepAwaitingPollQuestion  = "awaiting_poll_question"
	StepAwaitingPollOption    = "awaiting_poll_option"
)

// Scratch data keys.
const (
	scratchGroup       = "group"
	scratchBroadcastID = "broadcast_id"
	scratchQuestion    = "question"
	scratchOptions     = "options" // JSON-encoded []string
)

// Callback data prefixes.
const (
	cbAdminMenu      = "admin:menu"
	cbAdminGroups    = "admin:groups"
	cbAdminCodes     = "admin:codes"
	cbAdminBroadcast = "admin:broadcast"
	cbAdminPolls     = "admin:polls"
	cbAdminStats     = "admin:stats"

	cbGroupCreate    = "group:create"
	cbGroupDelete    = "group:delete:"  // + name
	cbGroupAddUser   = "group:adduser:" // + name
	cbGroupDelUser   = "group:deluser:" // + name
	cbCodesGenerate  = "codes:gen"
	cbCodesListUsed  = "codes:list:used"
	cbCodesListFresh = "codes:list:fresh"
	cbBroadcastNew   = "bcast:new"
	cbBroadcastSend  = "bcast:send:"   // + id
	cbBroadcastEdit  = "bcast:edit:"   // + id
	cbBroadcastAgain = "bcast:resend:" // + id
	cbBroadcastDel   = "bcast:delete:" // + id
	cbPollNew        = "poll:new"
	cbPollDone       = "poll:done"
	cbPollDelete     = "poll:delete:" // + id
	cbCategories     = "menu:categories"
	cbViewCategory   = "view:" // + category
	cbVote           = "vote:" // + pollID:optionIndex
)
