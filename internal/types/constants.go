package types

const ContextUserKey = "user"

const DefaultTaskStatus = "TODO"
