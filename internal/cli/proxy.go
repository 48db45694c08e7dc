package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/proxyops/internal/app"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// NewDeployProxyCmd creates the deploy-proxy command (CREATE2 through CreateX)
func NewDeployProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy-proxy",
		Short: "Deploy the proxy deterministically through CreateX",
		Long: `Deploy the administration proxy at a CREATE2 address derived from the
Proxy bytecode, its constructor arguments and DEPLOY_SALT.

If a proxy already exists at the predicted address nothing is submitted and
the existing proxy is reported.

Environment:
  NETWORK, PRIVATE_KEY, RPC_URL, MAX_FEE
  PROXY_MANAGER   manager of the new proxy (defaults to the signer)
  DEPLOY_SALT     optional salt for the CREATE2 address`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeployProxy(cmd, usecase.DeployCreate2)
		},
	}
	addDeployFlags(cmd)
	return scriptCmd(cmd)
}

// NewDeployProxyDirectCmd creates the deploy-proxy-direct command (plain CREATE)
func NewDeployProxyDirectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy-proxy-direct",
		Short: "Deploy the proxy with a plain creation transaction",
		Long: `Deploy the administration proxy with a creation transaction from the
signer. The address follows from the signer and its next nonce.

Environment:
  NETWORK, PRIVATE_KEY, RPC_URL, MAX_FEE
  PROXY_MANAGER   manager of the new proxy (defaults to the signer)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeployProxy(cmd, usecase.DeployCreate)
		},
	}
	cmd.Flags().String("proxy-manager", "", "Manager of the new proxy (defaults to the signer)")
	return scriptCmd(cmd)
}

// NewCallProxyCmd creates the call-proxy command
func NewCallProxyCmd() *cobra.Command {
	var selectAction bool

	cmd := &cobra.Command{
		Use:   "call-proxy",
		Short: "Load an existing proxy and optionally forward an action through it",
		Long: `Load the proxy at PROXY_ADDRESS and print its manager. When PROXY_ACTION
is set (or --select is given) the named action is composed and forwarded
through proxyCall.

Environment:
  NETWORK, PRIVATE_KEY, RPC_URL, MAX_FEE
  PROXY_ADDRESS   address of the deployed proxy
  PROXY_ACTION    optional action name, see 'proxyops actions'
  POOL_NAME       pool the action targets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			action := a.Config.ProxyAction
			if action == "" && selectAction {
				action, err = a.Selector.SelectOption(cmd.Context(), "Select an action", a.ProxyCall.Actions().Names())
				if err != nil {
					return err
				}
			}
			if action != "" {
				return runProxyAction(cmd, a, action)
			}

			session, err := a.ResolveSession.Run(cmd.Context(), usecase.RequireProxyAddress)
			if err != nil {
				return err
			}
			defer session.Close()
			a.Renderer.RenderSession(session)

			result, err := a.InspectProxy.Run(cmd.Context(), session, a.Config.ProxyAddress)
			if err != nil {
				return err
			}
			a.Renderer.RenderInspect(result)
			return nil
		},
	}
	addProxyFlags(cmd)
	cmd.Flags().String("proxy-action", "", "Action to forward through the proxy")
	cmd.Flags().BoolVar(&selectAction, "select", false, "Pick the action interactively")
	return scriptCmd(cmd)
}

// NewSetPoolOwnerCmd creates the set-pool-owner command
func NewSetPoolOwnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-pool-owner",
		Short: "Hand pool ownership to a new owner through the proxy",
		Long: `Compose setPoolOwner(pool_id, owner) on the protocol extension and
forward it through the proxy.

Environment:
  NETWORK, PRIVATE_KEY, RPC_URL, MAX_FEE
  PROXY_ADDRESS   address of the deployed proxy
  POOL_NAME       pool to update
  POOL_OWNER      new owner (defaults to the signer)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			return runProxyAction(cmd, a, usecase.ActionSetPoolOwner)
		},
	}
	addProxyFlags(cmd)
	cmd.Flags().String("pool-owner", "", "New pool owner (defaults to the signer)")
	return scriptCmd(cmd)
}

// NewSetShutdownLTVCmd creates the set-shutdown-ltv command
func NewSetShutdownLTVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-shutdown-ltv",
		Short: "Set the shutdown LTV of a collateral/debt pair through the proxy",
		Long: `Compose setShutdownLTVConfig(pool_id, collateral, debt, {max_ltv}) on the
protocol extension and forward it through the proxy. Assets are picked by
their index in the protocol manifest.

Environment:
  NETWORK, PRIVATE_KEY, RPC_URL, MAX_FEE
  PROXY_ADDRESS            address of the deployed proxy
  POOL_NAME                pool to update
  COLLATERAL_ASSET_INDEX   collateral asset index (default 0)
  DEBT_ASSET_INDEX         debt asset index (default 1)
  MAX_LTV                  max LTV scaled by 1e18 (default 1e18)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			return runProxyAction(cmd, a, usecase.ActionSetShutdownLTVConfig)
		},
	}
	addProxyFlags(cmd)
	cmd.Flags().Int("collateral-asset-index", 0, "Collateral asset index in the protocol manifest")
	cmd.Flags().Int("debt-asset-index", 1, "Debt asset index in the protocol manifest")
	cmd.Flags().String("max-ltv", "", "Max LTV scaled by 1e18")
	return scriptCmd(cmd)
}

// NewActionsCmd lists the actions call-proxy can forward
func NewActionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the actions that can be forwarded through the proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			registry := a.ProxyCall.Actions()
			for _, name := range registry.Names() {
				action, _ := registry.Get(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", name, action.Description())
			}
			return nil
		},
	}
	return scriptCmd(cmd)
}

func scriptCmd(cmd *cobra.Command) *cobra.Command {
	cmd.PersistentPreRunE = initApp
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func addDeployFlags(cmd *cobra.Command) {
	cmd.Flags().String("proxy-manager", "", "Manager of the new proxy (defaults to the signer)")
	cmd.Flags().String("deploy-salt", "", "Salt for the CREATE2 address")
}

func addProxyFlags(cmd *cobra.Command) {
	cmd.Flags().String("proxy-address", "", "Address of the deployed proxy")
	cmd.Flags().String("pool-name", "", "Pool the action targets")
}

func runDeployProxy(cmd *cobra.Command, mode usecase.DeployMode) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}

	session, err := a.ResolveSession.Run(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()
	a.Renderer.RenderSession(session)

	result, err := a.DeployProxy.Run(cmd.Context(), session, usecase.DeployProxyParams{
		Manager: a.Config.ProxyManager,
		Salt:    a.Config.DeploySalt,
		Mode:    mode,
	})
	if result != nil && err != nil {
		if len(result.Calls) > 0 {
			a.Renderer.RenderCalls(result.Calls)
		}
		if result.Receipt != nil {
			a.Renderer.RenderReceipt(result.Receipt, session.Network)
		}
	}
	if err != nil {
		return err
	}

	a.Renderer.RenderDeploy(result, session.Network)
	return nil
}

func runProxyAction(cmd *cobra.Command, a *app.App, action string) error {
	session, err := a.ResolveSession.Run(cmd.Context(), usecase.RequireProxyAddress)
	if err != nil {
		return err
	}
	defer session.Close()
	a.Renderer.RenderSession(session)

	result, err := a.ProxyCall.Run(cmd.Context(), session, usecase.ProxyCallParams{
		ProxyAddress: a.Config.ProxyAddress,
		PoolName:     a.Config.PoolName,
		Action:       action,
		Args: usecase.ActionParams{
			PoolOwner:  a.Config.PoolOwner,
			Collateral: a.Config.Collateral,
			Debt:       a.Config.Debt,
			MaxLTV:     a.Config.MaxLTV,
		},
	})
	if result != nil && result.Proxy != nil {
		a.Renderer.RenderInspect(&usecase.InspectProxyResult{Proxy: result.Proxy, Manager: result.Manager})
		if result.Pool.Name != "" {
			a.Renderer.RenderProxyCall(result, session.Network)
		}
	}
	return err
}
