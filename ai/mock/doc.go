// Package mock provides test doubles for the ai package.
//
// # Usage
//
//	completer := mock.NewMockCompleter("python and java")
//	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
//	    return "", errors.New("model unavailable")
//	}
//
//	// Check call counts
//	count := completer.CallCount()
//
// # Default Behavior
//
//   - MockCompleter: Returns its canned reply, or the prompt's last line when
//     no reply is set
//   - MockProvider: Wraps a MockCompleter
package mock
