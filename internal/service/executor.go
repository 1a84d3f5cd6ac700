package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mealpoint/kiosk-api/internal/ai"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/metrics"
	"github.com/mealpoint/kiosk-api/internal/models"
	"go.uber.org/zap"
)

// ExecuteResult is the outcome of executing a resolved voice command: the
// text to speak back, plus a flag telling the caller to surface the help
// panel.
type ExecuteResult struct {
	Text     string
	ShowHelp bool
}

// CommandExecutor translates fully-resolved voice commands into cart and
// order mutations, producing a spoken response for every path.
type CommandExecutor struct {
	Catalog *CatalogService
	Cart    *CartService
}

// NewCommandExecutor creates a new CommandExecutor.
func NewCommandExecutor(catalog *CatalogService, cart *CartService) *CommandExecutor {
	return &CommandExecutor{Catalog: catalog, Cart: cart}
}

// Execute runs a resolved command. Unknown item names and sold-out items are
// reported per item in the response text; nothing here is fatal.
func (e *CommandExecutor) Execute(command *ai.VoiceCommand) ExecuteResult {
	metrics.VoiceCommandsTotal.WithLabelValues(string(command.Intent)).Inc()

	switch command.Intent {
	case ai.IntentAddItem:
		if len(command.Items) > 0 {
			return e.addItems(command.Items)
		}
		if command.Entity != "" {
			return e.addSingle(command.Entity, command.Quantity)
		}
		return unrecognizedResult()

	case ai.IntentRemoveItem:
		return e.removeItem(command.Entity)

	case ai.IntentShowMenu:
		return e.showMenu()

	case ai.IntentCheckout:
		return e.checkout()

	case ai.IntentHelp:
		return ExecuteResult{
			Text:     "치킨버거 추가, 콜라 2개 주문, 감자튀김 빼기, 메뉴 보여줘, 결제하기 등의 명령을 사용할 수 있습니다.",
			ShowHelp: true,
		}

	default:
		return unrecognizedResult()
	}
}

func unrecognizedResult() ExecuteResult {
	return ExecuteResult{Text: `죄송합니다. 명령을 이해하지 못했습니다. "도움말"이라고 말씀해보세요.`}
}

// addItems handles a compound multi-item add. Per-item failures never abort
// the siblings; the response aggregates added, sold-out, and not-found
// fragments.
func (e *CommandExecutor) addItems(items []ai.CommandItem) ExecuteResult {
	var added, soldOut, notFound []string

	for _, reqItem := range items {
		quantity := reqItem.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		menuItem, err := e.Catalog.FindByName(reqItem.Name)
		if err != nil {
			logger.Get().Error("menu lookup failed", zap.String("name", reqItem.Name), zap.Error(err))
			notFound = append(notFound, reqItem.Name)
			continue
		}

		switch {
		case menuItem == nil:
			notFound = append(notFound, reqItem.Name)
		case !menuItem.Available:
			soldOut = append(soldOut, menuItem.Name)
		default:
			e.Cart.AddItem(*menuItem, quantity, "")
			added = append(added, fmt.Sprintf("%s %d개", menuItem.Name, quantity))
		}
	}

	var b strings.Builder
	if len(added) > 0 {
		fmt.Fprintf(&b, "%s를 장바구니에 담았습니다.", strings.Join(added, ", "))
	}
	if len(soldOut) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "죄송합니다. %s은(는) 현재 품절입니다.", strings.Join(soldOut, ", "))
	}
	if len(notFound) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "죄송합니다. \"%s\" 메뉴를 찾을 수 없습니다.", strings.Join(notFound, ", "))
	}

	return ExecuteResult{Text: b.String()}
}

// addSingle handles a single-entity add with the full matching rules.
func (e *CommandExecutor) addSingle(entity string, quantity int) ExecuteResult {
	if quantity <= 0 {
		quantity = 1
	}

	menuItem, err := e.Catalog.FindByName(entity)
	if err != nil {
		logger.Get().Error("menu lookup failed", zap.String("entity", entity), zap.Error(err))
		menuItem = nil
	}

	switch {
	case menuItem == nil:
		return ExecuteResult{Text: fmt.Sprintf("죄송합니다. \"%s\" 메뉴를 찾을 수 없습니다.", entity)}
	case !menuItem.Available:
		return ExecuteResult{Text: fmt.Sprintf("죄송합니다. %s은(는) 현재 품절입니다.", menuItem.Name)}
	default:
		e.Cart.AddItem(*menuItem, quantity, "")
		return ExecuteResult{Text: fmt.Sprintf("%s %d개를 장바구니에 담았습니다.", menuItem.Name, quantity)}
	}
}

// removeItem matches the entity against current cart lines with the same
// name rules used for adds and removes the first match.
func (e *CommandExecutor) removeItem(entity string) ExecuteResult {
	if entity == "" {
		return unrecognizedResult()
	}

	line := e.matchCartLine(entity)
	if line == nil {
		return ExecuteResult{Text: fmt.Sprintf("장바구니에서 \"%s\" 메뉴를 찾을 수 없습니다.", entity)}
	}

	e.Cart.RemoveItem(line.Item.ID)
	return ExecuteResult{Text: fmt.Sprintf("%s을(를) 장바구니에서 제거했습니다.", line.Item.Name)}
}

// matchCartLine resolves free text to a cart line: exact name first, then
// substring containment, then category synonym tokens.
func (e *CommandExecutor) matchCartLine(entity string) *models.CartLine {
	lines := e.Cart.Lines()
	norm := normalizeName(entity)

	for i := range lines {
		if normalizeName(lines[i].Item.Name) == norm || (lines[i].Item.NameEn != "" && normalizeName(lines[i].Item.NameEn) == norm) {
			return &lines[i]
		}
	}

	for i := range lines {
		name := normalizeName(lines[i].Item.Name)
		nameEn := normalizeName(lines[i].Item.NameEn)
		if strings.Contains(name, norm) || strings.Contains(norm, name) {
			return &lines[i]
		}
		if nameEn != "" && (strings.Contains(nameEn, norm) || strings.Contains(norm, nameEn)) {
			return &lines[i]
		}
	}

	categories, err := e.Catalog.ListCategories()
	if err != nil {
		logger.Get().Warn("category lookup for cart match failed", zap.Error(err))
		return nil
	}
	for _, cat := range categories {
		for _, token := range cat.Synonyms {
			if !strings.Contains(norm, normalizeName(token)) {
				continue
			}
			for i := range lines {
				if lines[i].Item.CategoryID == cat.ID {
					return &lines[i]
				}
			}
		}
	}
	return nil
}

func (e *CommandExecutor) showMenu() ExecuteResult {
	items, err := e.Catalog.ListAvailableMenuItems()
	if err != nil {
		logger.Get().Error("show menu failed", zap.Error(err))
		return ExecuteResult{Text: "메뉴를 불러오지 못했습니다. 잠시 후 다시 시도해주세요."}
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return ExecuteResult{Text: fmt.Sprintf("현재 주문 가능한 메뉴는 %s 입니다.", strings.Join(names, ", "))}
}

// checkout reports the cart size and total. Opening the payment flow is the
// caller's job; voice only tells the customer what the cart holds.
func (e *CommandExecutor) checkout() ExecuteResult {
	lines := e.Cart.Lines()
	if len(lines) == 0 {
		return ExecuteResult{Text: "장바구니가 비어있습니다. 먼저 메뉴를 선택해주세요."}
	}
	return ExecuteResult{
		Text: fmt.Sprintf("총 %d개 상품, %s원입니다. 주문하기 버튼을 눌러주세요.", len(lines), formatWon(e.Cart.Total())),
	}
}

// formatWon renders an amount with thousands separators, e.g. 12500 → 12,500.
func formatWon(amount int) string {
	s := strconv.Itoa(amount)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
