package ast

type (
	StmtID    uint32
	ExprID    uint32
	FuncID    uint32
	PayloadID uint32
)

const (
	NoStmtID    StmtID    = 0
	NoExprID    ExprID    = 0
	NoFuncID    FuncID    = 0
	NoPayloadID PayloadID = 0
)

func (id StmtID) IsValid() bool    { return id != NoStmtID }
func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id FuncID) IsValid() bool    { return id != NoFuncID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
