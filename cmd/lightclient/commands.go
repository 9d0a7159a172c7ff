package main

import (
	"fmt"

	"github.com/ComposableFi/composable-sub011/db"
	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/ComposableFi/composable-sub011/light-client/keeper"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var commands = []*cli.Command{
	{
		Name:   "create",
		Usage:  "Creates a client from an initial client and consensus state",
		Flags:  []cli.Flag{clientStateFlag, consensusStateFlag, &cli.StringFlag{Name: clientIDFlag.Name, Usage: "Identifier to use instead of a generated one"}},
		Action: withKeeper(createClient),
	},
	{
		Name:   "update",
		Usage:  "Applies a header or misbehaviour to a client",
		Flags:  []cli.Flag{clientIDFlag, messageFlag},
		Action: withKeeper(updateClient),
	},
	{
		Name:   "upgrade",
		Usage:  "Replaces a client with an upgrade committed to by the parachain",
		Flags:  []cli.Flag{clientIDFlag, clientStateFlag, consensusStateFlag, proofClientFlag, proofConsensusFlag},
		Action: withKeeper(upgradeClient),
	},
	{
		Name:   "status",
		Usage:  "Prints the status and stored heights of a client",
		Flags:  []cli.Flag{clientIDFlag},
		Action: withKeeper(clientStatus),
	},
	{
		Name:   "list",
		Usage:  "Lists all clients",
		Action: withKeeper(listClients),
	},
	{
		Name:   "verify-membership",
		Usage:  "Verifies a storage proof against a stored consensus state",
		Flags:  []cli.Flag{clientIDFlag, heightFlag, prefixFlag, pathFlag, proofFlag, valueFlag},
		Action: withKeeper(verifyMembership),
	},
}

type keeperAction func(cliCtx *cli.Context, k *keeper.Keeper) error

// withKeeper opens the database in the data directory for the duration of
// the action.
func withKeeper(action keeperAction) cli.ActionFunc {
	return func(cliCtx *cli.Context) (err error) {
		d, err := db.NewDB(cliCtx.Context, cliCtx.String(DataDirFlag.Name))
		if err != nil {
			return errors.Wrap(err, "could not open database")
		}
		defer func() {
			if closeErr := d.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		k, err := keeper.New(&keeper.Config{Database: d})
		if err != nil {
			return err
		}
		return action(cliCtx, k)
	}
}

func readStates(cliCtx *cli.Context) (client.ClientState, *primitives.ConsensusState, error) {
	enc, err := readHexFile(cliCtx.String(clientStateFlag.Name))
	if err != nil {
		return nil, nil, err
	}
	cs, err := client.DecodeClientState(enc)
	if err != nil {
		return nil, nil, err
	}
	enc, err = readHexFile(cliCtx.String(consensusStateFlag.Name))
	if err != nil {
		return nil, nil, err
	}
	cons, err := client.DecodeConsensusState(enc)
	if err != nil {
		return nil, nil, err
	}
	return cs, cons, nil
}

func createClient(cliCtx *cli.Context, k *keeper.Keeper) error {
	cs, cons, err := readStates(cliCtx)
	if err != nil {
		return err
	}
	id := cliCtx.String(clientIDFlag.Name)
	if id == "" {
		id, err = k.CreateClient(cliCtx.Context, cs, cons)
	} else {
		err = k.Create(cliCtx.Context, id, cs, cons)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cliCtx.App.Writer, id)
	return nil
}

func updateClient(cliCtx *cli.Context, k *keeper.Keeper) error {
	enc, err := readHexFile(cliCtx.String(messageFlag.Name))
	if err != nil {
		return err
	}
	msg, err := client.DecodeClientMessage(enc)
	if err != nil {
		return err
	}
	res, err := k.Update(cliCtx.Context, cliCtx.String(clientIDFlag.Name), msg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cliCtx.App.Writer, "%s latest=%s\n", res.Outcome, res.ClientState.LatestHeight())
	for _, u := range res.ConsensusUpdates {
		fmt.Fprintf(cliCtx.App.Writer, "consensus %s timestamp=%d root=%#x\n", u.Height, u.ConsensusState.Timestamp, u.ConsensusState.Root)
	}
	return nil
}

func upgradeClient(cliCtx *cli.Context, k *keeper.Keeper) error {
	cs, cons, err := readStates(cliCtx)
	if err != nil {
		return err
	}
	proofClient, err := readHexFile(cliCtx.String(proofClientFlag.Name))
	if err != nil {
		return err
	}
	proofCons, err := readHexFile(cliCtx.String(proofConsensusFlag.Name))
	if err != nil {
		return err
	}
	next, err := k.Upgrade(cliCtx.Context, cliCtx.String(clientIDFlag.Name), cs, cons, proofClient, proofCons)
	if err != nil {
		return err
	}
	fmt.Fprintf(cliCtx.App.Writer, "upgraded latest=%s\n", next.LatestHeight())
	return nil
}

func clientStatus(cliCtx *cli.Context, k *keeper.Keeper) error {
	id := cliCtx.String(clientIDFlag.Name)
	cs, err := k.ClientState(cliCtx.Context, id)
	if err != nil {
		return err
	}
	status, err := k.Status(cliCtx.Context, id)
	if err != nil {
		return err
	}
	heights, err := k.ConsensusHeights(cliCtx.Context, id)
	if err != nil {
		return err
	}
	w := cliCtx.App.Writer
	fmt.Fprintf(w, "type: %s\n", cs.ClientType())
	fmt.Fprintf(w, "status: %s\n", status)
	fmt.Fprintf(w, "latest: %s\n", cs.LatestHeight())
	if frozen := cs.FrozenHeight(); frozen != nil {
		fmt.Fprintf(w, "frozen: %s\n", frozen)
	}
	for _, h := range heights {
		fmt.Fprintf(w, "consensus: %s\n", h)
	}
	return nil
}

func listClients(cliCtx *cli.Context, k *keeper.Keeper) error {
	ids, err := k.ClientIDs(cliCtx.Context)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cliCtx.App.Writer, id)
	}
	return nil
}

func verifyMembership(cliCtx *cli.Context, k *keeper.Keeper) error {
	height, err := primitives.ParseHeight(cliCtx.String(heightFlag.Name))
	if err != nil {
		return err
	}
	prefix, err := decodeHexFlag(cliCtx.String(prefixFlag.Name))
	if err != nil {
		return errors.Wrap(err, "could not decode prefix")
	}
	proof, err := readHexFile(cliCtx.String(proofFlag.Name))
	if err != nil {
		return err
	}
	id := cliCtx.String(clientIDFlag.Name)
	path := []byte(cliCtx.String(pathFlag.Name))
	if !cliCtx.IsSet(valueFlag.Name) {
		if err := k.VerifyNonMembership(cliCtx.Context, id, height, prefix, proof, path); err != nil {
			return err
		}
		fmt.Fprintln(cliCtx.App.Writer, "absent")
		return nil
	}
	value, err := readHexFile(cliCtx.String(valueFlag.Name))
	if err != nil {
		return err
	}
	if err := k.VerifyMembership(cliCtx.Context, id, height, prefix, proof, path, value); err != nil {
		return err
	}
	fmt.Fprintln(cliCtx.App.Writer, "present")
	return nil
}
