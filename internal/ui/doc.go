// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for the game discovery assistant:
//  1. [ChatView] : Converse with the assistant, streaming replies and game cards
//  2. [CatalogView] : Browse and search the game catalog
//  3. [DetailView] : Inspect one game and open its download link
//  4. [UploadView] : Submit a game file or cloud-drive link and watch progress
//  5. [AdminView] : Manage catalog records in a table
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Stream chunks and upload progress flow through channels pumped back into the
// update loop as messages, so slow network work never blocks rendering.
// Notifications are ordinary messages handled by the root model rather than
// shared mutable state.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
