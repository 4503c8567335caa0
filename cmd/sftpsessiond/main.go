// Command sftpsessiond is a standalone SFTP v3 daemon: it accepts SSH
// connections, authenticates them, and hands each "sftp" subsystem channel
// to a fresh sftpsession.Session backed by the local filesystem.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/randomminds/sftpsession"
	"github.com/randomminds/sftpsession/localfs"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:2022", "address to listen on")
	hostKeyPath := flag.String("host-key", "", "path to an SSH host private key")
	authorizedKeysPath := flag.String("authorized-keys", "", "path to an authorized_keys file")
	readOnly := flag.Bool("read-only", false, "reject write operations")
	workDir := flag.String("root", "", "directory that relative client paths resolve against (defaults to the process cwd); absolute paths are not confined to it")
	flag.Parse()

	if *hostKeyPath == "" {
		log.Fatal("sftpsessiond: -host-key is required")
	}

	hostKeyBytes, err := os.ReadFile(*hostKeyPath)
	if err != nil {
		log.Fatalf("sftpsessiond: reading host key: %v", err)
	}
	hostKey, err := ssh.ParsePrivateKey(hostKeyBytes)
	if err != nil {
		log.Fatalf("sftpsessiond: parsing host key: %v", err)
	}

	authorized, err := loadAuthorizedKeys(*authorizedKeysPath)
	if err != nil {
		log.Fatalf("sftpsessiond: loading authorized keys: %v", err)
	}

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if _, ok := authorized[string(key.Marshal())]; !ok {
				return nil, fmt.Errorf("unknown public key for %q", c.User())
			}
			return nil, nil
		},
	}
	config.AddHostKey(hostKey)

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("sftpsessiond: listen: %v", err)
	}
	log.Printf("sftpsessiond: listening on %v", listener.Addr())

	backend := &localfs.Backend{ReadOnly: *readOnly, WorkDir: *workDir}

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("sftpsessiond: accept: %v", err)
			continue
		}
		go serveConn(conn, config, backend)
	}
}

func serveConn(conn net.Conn, config *ssh.ServerConfig, backend sftpsession.FileSystem) {
	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		if err != io.EOF {
			log.Printf("sftpsessiond: handshake: %v", err)
		}
		return
	}
	log.Printf("sftpsessiond: handshake complete for %s", sshConn.RemoteAddr())

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		channel, requests, err := newChan.Accept()
		if err != nil {
			log.Printf("sftpsessiond: accept channel: %v", err)
			continue
		}

		go serveChannel(channel, requests, backend)
	}
}

func serveChannel(channel ssh.Channel, requests <-chan *ssh.Request, backend sftpsession.FileSystem) {
	isSubsystem := make(chan bool, 1)
	go func() {
		for req := range requests {
			ok := req.Type == "subsystem" && len(req.Payload) >= 4 && string(req.Payload[4:]) == "sftp"
			req.Reply(ok, nil)
			if ok {
				isSubsystem <- true
			}
		}
	}()

	<-isSubsystem

	sess := sftpsession.New(channel, backend)
	if err := sess.Run(); err != nil {
		log.Printf("sftpsessiond: session ended: %v", err)
	}
	channel.Close()
}

func loadAuthorizedKeys(path string) (map[string]struct{}, error) {
	authorized := map[string]struct{}{}
	if path == "" {
		return authorized, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	for len(data) > 0 {
		key, _, _, rest, err := ssh.ParseAuthorizedKey(data)
		if err != nil {
			break
		}
		authorized[string(key.Marshal())] = struct{}{}
		data = rest
	}
	return authorized, nil
}
