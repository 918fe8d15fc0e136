// Command authctl is a small operator CLI for the authentication service.
//
// Usage:
//
//	authctl -s localhost:50051 login <username>
//	authctl -s localhost:50051 validate <token>
//	authctl -s localhost:50051 get <user-id>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	pb "github.com/akozlenkov/authgate/internal/proto"
	"golang.org/x/term"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {

	addr := flag.String("s", "localhost:50051", "server address")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("connection error: %v", err)
	}
	defer conn.Close()

	client := pb.NewAuthServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "login":
		login(ctx, client, args[1])
	case "validate":
		validate(ctx, client, args[1])
	case "get":
		get(ctx, client, args[1])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: authctl [-s address] login <username> | validate <token> | get <user-id>")
	os.Exit(2)
}

func getPassword() ([]byte, error) {
	fmt.Println("-Enter password")
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func login(ctx context.Context, client pb.AuthServiceClient, username string) {
	password, err := getPassword()
	if err != nil {
		log.Fatalf("password read error: %v", err)
	}

	resp, err := client.Authenticate(ctx, &pb.AuthenticateRequest{
		Username: username,
		Password: string(password),
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	u := resp.GetUser()
	fmt.Printf("id:       %s\n", u.GetId())
	fmt.Printf("username: %s\n", u.GetUsername())
	fmt.Printf("email:    %s\n", u.GetEmail())
	fmt.Printf("name:     %s %s\n", u.GetName(), u.GetSurname())
	fmt.Printf("token:    %s\n", resp.GetAccessToken())
}

func validate(ctx context.Context, client pb.AuthServiceClient, token string) {
	resp, err := client.ValidateToken(ctx, &pb.ValidateTokenRequest{AccessToken: token})
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("valid: %v\n", resp.GetValid())
}

func get(ctx context.Context, client pb.AuthServiceClient, userID string) {
	resp, err := client.GetUser(ctx, &pb.GetUserRequest{UserId: userID})
	if err != nil {
		log.Fatalf("%v", err)
	}

	u := resp.GetUser()
	fmt.Printf("id:       %s\n", u.GetId())
	fmt.Printf("username: %s\n", u.GetUsername())
	fmt.Printf("email:    %s\n", u.GetEmail())
	fmt.Printf("name:     %s %s\n", u.GetName(), u.GetSurname())
}
