package render

import (
	"fmt"
	"io"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	abiadapter "github.com/trebuchet-org/proxyops/internal/adapters/abi"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
	"github.com/trebuchet-org/proxyops/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxValueWidth = 66

var (
	labelColor   = color.New(color.FgWhite, color.Bold)
	addressColor = color.New(color.FgCyan)
	methodColor  = color.New(color.FgYellow)
	faintColor   = color.New(color.Faint)
)

// ProxyRenderer prints the script results
type ProxyRenderer struct {
	out     io.Writer
	decoder *abiadapter.TransactionDecoder
}

// NewProxyRenderer creates a new proxy renderer
func NewProxyRenderer(out io.Writer, decoder *abiadapter.TransactionDecoder) *ProxyRenderer {
	return &ProxyRenderer{out: out, decoder: decoder}
}

// RenderSession prints the resolved network and account
func (r *ProxyRenderer) RenderSession(session *usecase.Session) {
	fmt.Fprintf(r.out, "%s %s (chain %d)\n", labelColor.Sprint("Network:"), session.Network.Name, session.Network.ChainID)
	fmt.Fprintf(r.out, "%s %s\n", labelColor.Sprint("Account:"), addressColor.Sprint(session.Address().Hex()))
}

// RenderDeploy prints the outcome of a proxy deployment
func (r *ProxyRenderer) RenderDeploy(result *usecase.DeployProxyResult, network *config.Network) {
	if len(result.Calls) > 0 {
		r.RenderCalls(result.Calls)
	}
	if result.Receipt != nil {
		r.RenderReceipt(result.Receipt, network)
	}
	if result.AlreadyDeployed {
		fmt.Fprintln(r.out, FormatWarning("Proxy already deployed at "+result.Proxy.Address.Hex()))
	}
	fmt.Fprintf(r.out, "Deployed: proxy=%s\n", addressColor.Sprint(result.Proxy.Address.Hex()))
	fmt.Fprintf(r.out, "Proxy Manager: %s\n", addressColor.Sprint(result.Manager.Hex()))
}

// RenderInspect prints the loaded proxy and its manager
func (r *ProxyRenderer) RenderInspect(result *usecase.InspectProxyResult) {
	r.decoder.Register(result.Proxy.Address, "Proxy", abiadapter.ProxyInterface)
	fmt.Fprintf(r.out, "Proxy: %s\n", addressColor.Sprint(result.Proxy.Address.Hex()))
	fmt.Fprintf(r.out, "Proxy Manager: %s\n", addressColor.Sprint(result.Manager.Hex()))
}

// RenderProxyCall prints the proxied action and its outcome
func (r *ProxyRenderer) RenderProxyCall(result *usecase.ProxyCallResult, network *config.Network) {
	if result.Proxy != nil {
		r.decoder.Register(result.Proxy.Address, "Proxy", abiadapter.ProxyInterface)
	}
	if result.Protocol != nil {
		r.decoder.Register(result.Protocol.Extension, "Extension", abiadapter.ExtensionInterface)
		r.decoder.Register(result.Protocol.Singleton, "Singleton", "")
	}
	fmt.Fprintf(r.out, "%s %s (%s)\n", labelColor.Sprint("Pool:"), result.Pool.Name, faintColor.Sprint(hexutil.Encode(result.Pool.ID[:])))
	fmt.Fprintf(r.out, "%s %s\n", labelColor.Sprint("Action:"), methodColor.Sprint(result.Action))
	if len(result.Outer.Data()) > 0 {
		r.RenderCalls([]domain.CallDescriptor{result.Outer})
	}
	if result.Receipt != nil {
		r.RenderReceipt(result.Receipt, network)
	}
}

// RenderCalls prints the composed calls as a tree table
func (r *ProxyRenderer) RenderCalls(calls []domain.CallDescriptor) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingRight: "   ",
	}
	t.AppendHeader(table.Row{"Target", "Method", "Arguments"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, WidthMax: 100},
	})

	for _, call := range calls {
		appendCall(t, r.decoder.Decode(call), "")
	}

	fmt.Fprintln(r.out, t.Render())
}

// RenderReceipt prints the transaction outcome
func (r *ProxyRenderer) RenderReceipt(receipt *domain.TransactionReceipt, network *config.Network) {
	state := cases.Title(language.English).String(string(receipt.State))
	stateColor := color.New(color.FgYellow)
	switch receipt.State {
	case domain.TxConfirmed:
		stateColor = color.New(color.FgGreen, color.Bold)
	case domain.TxRejected:
		stateColor = color.New(color.FgRed, color.Bold)
	}

	fmt.Fprintf(r.out, "Transaction: %s\n", receipt.Hash.Hex())
	if url := network.TxURL(receipt.Hash); url != "" {
		fmt.Fprintf(r.out, "  %s\n", faintColor.Sprint(url))
	}
	fmt.Fprintf(r.out, "Status: %s", stateColor.Sprint(state))
	if receipt.BlockNumber > 0 {
		fmt.Fprintf(r.out, " (block %d, gas %d", receipt.BlockNumber, receipt.GasUsed)
		if receipt.EffectiveFee != nil {
			fmt.Fprintf(r.out, ", fee %s wei", receipt.EffectiveFee)
		}
		fmt.Fprint(r.out, ")")
	}
	fmt.Fprintln(r.out)
	if receipt.Reason != "" {
		fmt.Fprintf(r.out, "Reason: %s\n", receipt.Reason)
	}
}

func appendCall(t table.Writer, call *abiadapter.DecodedCall, prefix string) {
	target := call.Label
	if call.To != nil && call.Label != call.To.Hex() {
		target = fmt.Sprintf("%s %s", call.Label, faintColor.Sprint(shortAddress(*call.To)))
	}

	args := make([]string, 0, len(call.Inputs))
	for _, input := range call.Inputs {
		if len(call.Calls) > 0 && input.Name == "calls" {
			args = append(args, fmt.Sprintf("%s=[%d calls]", input.Name, len(call.Calls)))
			continue
		}
		args = append(args, fmt.Sprintf("%s=%s", input.Name, FormatValue(input.Value)))
	}
	if call.IsCreation {
		args = append(args, fmt.Sprintf("initCode=%d bytes", call.DataSize))
	}

	t.AppendRow(table.Row{prefix + addressColor.Sprint(target), methodColor.Sprint(call.Method), strings.Join(args, ", ")})

	childPrefix := strings.ReplaceAll(strings.ReplaceAll(prefix, "└─ ", "   "), "├─ ", "│  ")
	for i, child := range call.Calls {
		branch := "├─ "
		if i == len(call.Calls)-1 {
			branch = "└─ "
		}
		appendCall(t, child, childPrefix+branch)
	}
}

// FormatValue renders a decoded ABI value for display
func FormatValue(value any) string {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case common.Hash:
		return v.Hex()
	case [32]byte:
		return hexutil.Encode(v[:])
	case [4]byte:
		return hexutil.Encode(v[:])
	case []byte:
		return truncate(hexutil.Encode(v))
	case *big.Int:
		return v.String()
	case string:
		return fmt.Sprintf("%q", v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Struct:
		fields := make([]string, 0, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			fields = append(fields, fmt.Sprintf("%s: %s", rv.Type().Field(i).Name, FormatValue(rv.Field(i).Interface())))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case reflect.Slice, reflect.Array:
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, FormatValue(rv.Index(i).Interface()))
		}
		return truncate("[" + strings.Join(items, ", ") + "]")
	}
	return fmt.Sprint(value)
}

func shortAddress(address common.Address) string {
	hex := address.Hex()
	return hex[:6] + "…" + hex[len(hex)-4:]
}

func truncate(s string) string {
	if len(s) <= maxValueWidth {
		return s
	}
	return s[:maxValueWidth-3] + "..."
}
