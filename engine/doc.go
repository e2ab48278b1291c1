// Package engine embeds the phon scripting language in a Go program.
//
// A Runtime owns one heap, one virtual machine and the global namespace
// shared by every script it runs. Hosts extend it with native functions and
// classes, then load scripts from files or strings:
//
//	rt, err := engine.New(engine.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//	res, err := rt.DoString(ctx, "return 6 * 7")
//
// Values returned by the runtime are owned by the caller and must be given
// back with Release. A Runtime is not safe for concurrent use.
//
// Every failure is a *diag.Error whose Kind tells syntax, compile and
// runtime errors apart.
package engine
