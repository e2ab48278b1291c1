package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexBadEscape          Code = 1004
	LexUnterminatedRegex  Code = 1005
	LexBadRegex           Code = 1006

	// Syntax
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynExpectIdentifier Code = 2002
	SynExpectExpression Code = 2003
	SynUnclosedParen    Code = 2004
	SynUnclosedBracket  Code = 2005
	SynUnclosedBrace    Code = 2006
	SynExpectEnd        Code = 2007
	SynBadDeclaration   Code = 2008
	SynForBadHeader     Code = 2009
	SynForeachRefKey    Code = 2010
	SynTooMuchRecursion Code = 2011
	SynBadAssignment    Code = 2012
	SynBadExport        Code = 2013
	SynConstantOverflow Code = 2014
	SynExpectSeparator  Code = 2015

	// Compile
	CmpInfo                Code = 3000
	CmpTooManyParams       Code = 3001
	CmpDuplicateParam      Code = 3002
	CmpDuplicateLocal      Code = 3003
	CmpNotAssignable       Code = 3004
	CmpTooMuchRecursion    Code = 3005
	CmpBreakOutsideLoop    Code = 3006
	CmpTooManyConstants    Code = 3007
	CmpTooManyLocals       Code = 3008
	CmpJumpTooFar          Code = 3009
	CmpReturnAtTopLevel    Code = 3010
	CmpContinueOutsideLoop Code = 3011

	// Runtime
	RunInfo            Code = 4000
	RunUndefinedGlobal Code = 4001
	RunNoOverload      Code = 4002
	RunAmbiguousCall   Code = 4003
	RunNotCallable     Code = 4004
	RunTypeMismatch    Code = 4005
	RunIndexOutOfRange Code = 4006
	RunMissingKey      Code = 4007
	RunNoSuchField     Code = 4008
	RunStackOverflow   Code = 4009
	RunStackUnderflow  Code = 4010
	RunDivisionByZero  Code = 4011
	RunFloatOverflow   Code = 4012
	RunFloatUnderflow  Code = 4013
	RunInvalidFloat    Code = 4014
	RunAssertion       Code = 4015
	RunThrow           Code = 4016
	RunArity           Code = 4017
	RunRefMismatch     Code = 4018
	RunNotIterable     Code = 4019
	RunModuleNotFound  Code = 4020
	RunImportCycle     Code = 4021

	// Host
	HostInfo    Code = 5000
	HostError   Code = 5001
	HostPanic   Code = 5002
	HostIOError Code = 5003
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	LexInfo:                "Lexical information",
	LexUnknownChar:         "Illegal character",
	LexUnterminatedString:  "Unterminated string literal",
	LexBadNumber:           "Malformed number literal",
	LexBadEscape:           "Invalid escape sequence",
	LexUnterminatedRegex:   "Unterminated regular expression",
	LexBadRegex:            "Invalid regular expression",
	SynInfo:                "Syntax information",
	SynUnexpectedToken:     "Unexpected token",
	SynExpectIdentifier:    "Expected identifier",
	SynExpectExpression:    "Expected expression",
	SynUnclosedParen:       "Unclosed parenthesis",
	SynUnclosedBracket:     "Unclosed bracket",
	SynUnclosedBrace:       "Unclosed brace",
	SynExpectEnd:           "Expected 'end'",
	SynBadDeclaration:      "Invalid declaration",
	SynForBadHeader:        "Invalid for loop header",
	SynForeachRefKey:       "Foreach key cannot be a reference",
	SynTooMuchRecursion:    "Too much recursion",
	SynBadAssignment:       "Invalid assignment",
	SynBadExport:           "Invalid export",
	SynConstantOverflow:    "Constant out of range",
	SynExpectSeparator:     "Expected statement separator",
	CmpInfo:                "Compile information",
	CmpTooManyParams:       "Too many parameters",
	CmpDuplicateParam:      "Duplicate parameter",
	CmpDuplicateLocal:      "Duplicate local variable",
	CmpNotAssignable:       "Expression is not assignable",
	CmpTooMuchRecursion:    "Too much recursion",
	CmpBreakOutsideLoop:    "'break' outside of a loop",
	CmpContinueOutsideLoop: "'continue' outside of a loop",
	CmpTooManyConstants:    "Too many constants",
	CmpTooManyLocals:       "Too many local variables",
	CmpJumpTooFar:          "Jump target out of range",
	CmpReturnAtTopLevel:    "Invalid return",
	RunInfo:                "Runtime information",
	RunUndefinedGlobal:     "Undefined variable",
	RunNoOverload:          "Cannot resolve call",
	RunAmbiguousCall:       "Ambiguous call",
	RunNotCallable:         "Value is not callable",
	RunTypeMismatch:        "Type mismatch",
	RunIndexOutOfRange:     "Index out of range",
	RunMissingKey:          "Missing key",
	RunNoSuchField:         "No such field",
	RunStackOverflow:       "Stack overflow",
	RunStackUnderflow:      "Stack underflow",
	RunDivisionByZero:      "Division by zero",
	RunFloatOverflow:       "Floating point overflow",
	RunFloatUnderflow:      "Floating point underflow",
	RunInvalidFloat:        "Invalid floating point operation",
	RunAssertion:           "Assertion failed",
	RunThrow:               "Uncaught error",
	RunArity:               "Wrong number of arguments",
	RunRefMismatch:         "Inconsistent reference parameters",
	RunNotIterable:         "Value is not iterable",
	RunModuleNotFound:      "Module not found",
	RunImportCycle:         "Import cycle",
	HostInfo:               "Host information",
	HostError:              "Native function failed",
	HostPanic:              "Native function panicked",
	HostIOError:            "I/O error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CMP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("RUN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("HST%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
