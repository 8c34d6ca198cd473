package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"starhook.dev/pkg/starhook/internal/domain"
)

func TestInspectCmd(t *testing.T) {
	mockWorkflow := useMockWorkflow(t)

	cmd, _ := newTestRoot(newInspectCmd())

	mockWorkflow.EXPECT().Inspect(mock.Anything, domain.InspectArgs{
		Source: "starhook-out",
		Class:  "obf.Client",
		Method: "run",
	}).Return(nil).Once()

	cmd.SetArgs([]string{"inspect", "starhook-out", "obf.Client", "--method", "run"})
	require.NoError(t, cmd.Execute())
}

func TestInspectCmd_RequiresSourceAndClass(t *testing.T) {
	useMockWorkflow(t)

	cmd, _ := newTestRoot(newInspectCmd())
	cmd.SetArgs([]string{"inspect", "StarMade.jar"})

	require.Error(t, cmd.Execute())
}
