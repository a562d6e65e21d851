// Package commands defines the lanchat CLI.
//
// Commands
//
//   - listen <ADDR:PORT>           Accept chats and announce presence on the LAN
//   - connect <ALIAS|ADDR:PORT>    Chat with a peer
//   - discover                     Find peers on the LAN, pick one, chat
//   - add-peer <ALIAS> <ADDR:PORT> Save an alias
//   - list-peers                   Print saved aliases
//   - remove-peer <ALIAS>          Delete an alias
//   - history <FILE>               Print a transcript written with --record
//
// # Configuration
//
// Every persistent flag can also be set through a LANCHAT_ environment
// variable (--peers-file is LANCHAT_PEERS_FILE) or a YAML file at
// ~/.config/lanchat/config.yaml. Flags win over the environment, which wins
// over the file.
package commands
