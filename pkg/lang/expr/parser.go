package expr

// Recursive descent parser with operator precedence
// Precedence (lowest to highest):
// 1. | (OR)
// 2. ^ (XOR)
// 3. & (AND)
// 4. << >> (shifts)
// 5. + - (add/sub)
// 6. * / (mul/div)
// 7. unary - + ~
//
// Every binary level is left associative. Arithmetic wraps at 32 bits.

// binaryLevel parses a left associative chain of the operators in ops, with
// operands parsed by next
func binaryLevel(tokens []Token, next func([]Token) (Word, []Token, error), ops map[TokenType]func(Word, Word) (Word, error)) (Word, []Token, error) {
	left, tokens, err := next(tokens)
	if err != nil {
		return 0, nil, err
	}

	for len(tokens) > 0 {
		apply, ok := ops[tokens[0].Type]
		if !ok {
			break
		}

		right, remaining, err := next(tokens[1:])
		if err != nil {
			return 0, nil, err
		}

		left, err = apply(left, right)
		if err != nil {
			return 0, nil, err
		}
		tokens = remaining
	}

	return left, tokens, nil
}

var (
	orOps = map[TokenType]func(Word, Word) (Word, error){
		TokenOr: func(l, r Word) (Word, error) { return l | r, nil },
	}
	xorOps = map[TokenType]func(Word, Word) (Word, error){
		TokenXor: func(l, r Word) (Word, error) { return l ^ r, nil },
	}
	andOps = map[TokenType]func(Word, Word) (Word, error){
		TokenAnd: func(l, r Word) (Word, error) { return l & r, nil },
	}
	shiftOps = map[TokenType]func(Word, Word) (Word, error){
		// Shift counts use their low 5 bits
		TokenShiftLeft:  func(l, r Word) (Word, error) { return l << (uint32(r) & 31), nil },
		TokenShiftRight: func(l, r Word) (Word, error) { return l >> (uint32(r) & 31), nil },
	}
	addSubOps = map[TokenType]func(Word, Word) (Word, error){
		TokenPlus:  func(l, r Word) (Word, error) { return l + r, nil },
		TokenMinus: func(l, r Word) (Word, error) { return l - r, nil },
	}
	mulDivOps = map[TokenType]func(Word, Word) (Word, error){
		TokenMul: func(l, r Word) (Word, error) { return l * r, nil },
		TokenDiv: func(l, r Word) (Word, error) {
			if r == 0 {
				return 0, invalid("division by zero")
			}
			return l / r, nil
		},
	}
)

func parseOr(tokens []Token) (Word, []Token, error) {
	return binaryLevel(tokens, parseXor, orOps)
}

func parseXor(tokens []Token) (Word, []Token, error) {
	return binaryLevel(tokens, parseAnd, xorOps)
}

func parseAnd(tokens []Token) (Word, []Token, error) {
	return binaryLevel(tokens, parseShift, andOps)
}

func parseShift(tokens []Token) (Word, []Token, error) {
	return binaryLevel(tokens, parseAddSub, shiftOps)
}

func parseAddSub(tokens []Token) (Word, []Token, error) {
	return binaryLevel(tokens, parseMulDiv, addSubOps)
}

func parseMulDiv(tokens []Token) (Word, []Token, error) {
	return binaryLevel(tokens, parseUnary, mulDivOps)
}

func parseUnary(tokens []Token) (Word, []Token, error) {
	if len(tokens) == 0 {
		return 0, nil, invalid("unexpected end of expression")
	}

	switch tokens[0].Type {
	case TokenMinus:
		val, remaining, err := parseUnary(tokens[1:])
		if err != nil {
			return 0, nil, err
		}
		return -val, remaining, nil

	case TokenPlus:
		return parseUnary(tokens[1:])

	case TokenNot:
		val, remaining, err := parseUnary(tokens[1:])
		if err != nil {
			return 0, nil, err
		}
		return ^val, remaining, nil
	}

	return parsePrimary(tokens)
}

func parsePrimary(tokens []Token) (Word, []Token, error) {
	if len(tokens) == 0 {
		return 0, nil, invalid("unexpected end of expression")
	}

	tok := tokens[0]
	tokens = tokens[1:]

	switch tok.Type {
	case TokenNumber, TokenRegister:
		return tok.Num, tokens, nil

	case TokenLParen:
		val, remaining, err := parseOr(tokens)
		if err != nil {
			return 0, nil, err
		}
		if len(remaining) == 0 || remaining[0].Type != TokenRParen {
			return 0, nil, invalid("expected ')' after expression")
		}
		return val, remaining[1:], nil

	default:
		return 0, nil, invalid("unexpected token: %s", tok.Value)
	}
}
