package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"batchbook/internal/session"
)

// CLI interactiva contra un API corriendo, usando el cliente de sesion con
// tokens persistidos en un archivo local (el rol de localStorage).
func main() {
	reader := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	_ = godotenv.Load()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	storage, err := session.NewFileStorage(".batchbook_session.json")
	if err != nil {
		log.Fatal(err)
	}
	client := session.NewClient(baseURL, storage)

	client.Bootstrap(ctx)
	printState(client)

	for {
		fmt.Println("[1] Register  [2] Login  [3] Request OTP  [4] Verify OTP  [5] Me  [6] Logout  [q] Salir")
		fmt.Print("> ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		switch choice {
		case "1":
			name := prompt(reader, "Nombre: ")
			email := prompt(reader, "Email: ")
			password := prompt(reader, "Password: ")
			if err := client.Register(ctx, name, email, password); err != nil {
				fmt.Println("error:", err)
			}
		case "2":
			email := prompt(reader, "Email: ")
			password := prompt(reader, "Password: ")
			if err := client.Login(ctx, email, password); err != nil {
				fmt.Println("error:", err)
			}
		case "3":
			email := prompt(reader, "Email: ")
			if err := client.RequestOTP(ctx, email); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("OTP enviado, revisa tu correo.")
			}
		case "4":
			email := prompt(reader, "Email: ")
			code := prompt(reader, "Codigo: ")
			if err := client.VerifyOTP(ctx, email, code); err != nil {
				fmt.Println("error:", err)
			}
		case "5":
			user, err := client.CurrentUser(ctx)
			if err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Printf("%s <%s>\n", user.Name, user.Email)
			}
		case "6":
			client.Logout(ctx)
		case "q":
			return
		default:
			continue
		}
		printState(client)
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func printState(client *session.Client) {
	state := client.State()
	if state.IsAuthenticated && state.User != nil {
		fmt.Printf("sesion activa: %s\n", state.User.Email)
		return
	}
	if state.Err != "" {
		fmt.Printf("sin sesion (ultimo error: %s)\n", state.Err)
		return
	}
	fmt.Println("sin sesion")
}
