package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/stretchr/testify/assert"

	"github.com/palemoky/reaction-royale/internal/client"
	"github.com/palemoky/reaction-royale/internal/protocol"
)

func TestNewLobbyModel(t *testing.T) {
	mockClient := &client.Client{}
	inputModel := textinput.New()

	model := NewLobbyModel(mockClient, &inputModel)

	assert.NotNil(t, model)
	assert.Equal(t, mockClient, model.client)
	assert.Equal(t, &inputModel, model.input)
}

func TestLobbyModel_Navigation_Menu(t *testing.T) {
	model := &LobbyModel{
		selectedIndex: 0,
	}

	// Menu items: 0 Create Room, 1 Join Room, 2 Room List

	// Down: 0 -> 1
	model.handleDownKey(PhaseLobby)
	assert.Equal(t, 1, model.selectedIndex)

	// Wrapping around
	model.selectedIndex = 2
	model.handleDownKey(PhaseLobby)
	assert.Equal(t, 0, model.selectedIndex)

	// Up: 0 -> 2 (wrap)
	model.handleUpKey(PhaseLobby)
	assert.Equal(t, 2, model.selectedIndex)

	model.handleUpKey(PhaseLobby)
	assert.Equal(t, 1, model.selectedIndex)
}

func TestLobbyModel_Navigation_RoomList(t *testing.T) {
	rooms := []protocol.RoomListItem{
		{RoomCode: "AAAA", PlayerCount: 1},
		{RoomCode: "BBBB", PlayerCount: 2},
		{RoomCode: "CCCC", PlayerCount: 3},
	}

	model := &LobbyModel{
		availableRooms:  rooms,
		selectedRoomIdx: 0,
	}

	// Down: 0 -> 1
	model.handleDownKey(PhaseRoomList)
	assert.Equal(t, 1, model.selectedRoomIdx)

	// Wrapping
	model.selectedRoomIdx = 2
	model.handleDownKey(PhaseRoomList)
	assert.Equal(t, 0, model.selectedRoomIdx)

	// Up: 0 -> 2 (wrap)
	model.handleUpKey(PhaseRoomList)
	assert.Equal(t, 2, model.selectedRoomIdx)

	model.handleUpKey(PhaseRoomList)
	assert.Equal(t, 1, model.selectedRoomIdx)
}

func TestLobbyModel_Navigation_EmptyRoomList(t *testing.T) {
	model := &LobbyModel{
		availableRooms:  []protocol.RoomListItem{},
		selectedRoomIdx: 0,
	}

	model.handleDownKey(PhaseRoomList)
	assert.Equal(t, 0, model.selectedRoomIdx)

	model.handleUpKey(PhaseRoomList)
	assert.Equal(t, 0, model.selectedRoomIdx)
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 8))
	assert.Equal(t, "很长的房间名…", truncateName("很长的房间名称啊", 7))
}
