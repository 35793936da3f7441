package banner

import "fmt"

const banner = `
 ██████  ██████  ███    ██ ██    ██  ██████  ███████ ████████  ██████  ██████  ███████
██      ██    ██ ████   ██ ██    ██ ██    ██ ██         ██    ██    ██ ██   ██ ██
██      ██    ██ ██ ██  ██ ██    ██ ██    ██ ███████    ██    ██    ██ ██████  █████
██      ██    ██ ██  ██ ██  ██  ██  ██    ██      ██    ██    ██    ██ ██   ██ ██
 ██████  ██████  ██   ████   ████    ██████  ███████    ██     ██████  ██   ██ ███████
`

// Print writes the startup summary.
func Print(addr, backend, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("Backend:  %s\n", backend)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET    /health                                      - backend connectivity")
	fmt.Println("POST   /conversations                               - save a conversation")
	fmt.Println("GET    /conversations/{user_id}?limit=<n>           - list a user's conversations")
	fmt.Println("GET    /conversations/{user_id}/{conversation_id}   - fetch one conversation")
	fmt.Println("PUT    /conversations/{user_id}/{conversation_id}   - replace messages")
	fmt.Println("DELETE /conversations/{user_id}/{conversation_id}   - delete a conversation")
}
