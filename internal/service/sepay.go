package service

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "math"
    "net/url"
    "regexp"
    "strconv"
    "strings"
    "time"
)

var (
    ErrNoOrderID    = errors.New("cannot parse order id from transfer content")
    ErrBadTxnDate   = errors.New("invalid transaction date")
    contentSplitter = regexp.MustCompile(`[\s/-]+`)
    digitsOnly      = regexp.MustCompile(`^\d+$`)
)

// OrderDescription is the transfer note printed in the QR code.  Banks
// prepend their own reference numbers, which ParseOrderID tolerates.
func OrderDescription(orderID uint64) string { return fmt.Sprintf("DH %d", orderID) }

// ParseOrderID extracts the order id from a bank transfer note.  The note is
// split on whitespace, '/' and '-'; when at least two tokens are all digits
// the last one is the order id.
func ParseOrderID(content string) (uint64, error) {
    var nums []string
    for _, p := range contentSplitter.Split(strings.TrimSpace(content), -1) {
        if digitsOnly.MatchString(p) {
            nums = append(nums, p)
        }
    }
    if len(nums) < 2 {
        return 0, ErrNoOrderID
    }
    id, err := strconv.ParseUint(nums[len(nums)-1], 10, 64)
    if err != nil || id == 0 {
        return 0, ErrNoOrderID
    }
    return id, nil
}

// ParseTransactionDate reads SePay's "YYYY-MM-DD HH:MM:SS" timestamps (UTC)
// and also accepts RFC 3339.
func ParseTransactionDate(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC); err == nil {
        return t, nil
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, nil
    }
    return time.Time{}, ErrBadTxnDate
}

// WebhookSignature is the hex HMAC-SHA256 over the concatenation of
// transaction id, order id, status, amount, payment method and unix
// timestamp.
func WebhookSignature(secret, txnID string, orderID uint64, status string, amount float64, method string, ts time.Time) string {
    raw := txnID + strconv.FormatUint(orderID, 10) + status + FormatAmount(amount) + method + strconv.FormatInt(ts.Unix(), 10)
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(raw))
    return hex.EncodeToString(mac.Sum(nil))
}

// SignedStatus is the status word SePay signs: "success" for incoming
// transfers, "failed" otherwise.
func SignedStatus(incoming bool) string {
    if incoming {
        return "success"
    }
    return "failed"
}

// SignedMethod is the payment method SePay signs: the bank gateway, or
// "qr_code" when the notification names none.
func SignedMethod(gateway string) string {
    if gateway == "" {
        return "qr_code"
    }
    return gateway
}

// VerifySignature compares a received signature in constant time.
func VerifySignature(expected, got string) bool {
    return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(got))))
}

// FormatAmount renders an amount without a trailing ".0" for whole values.
func FormatAmount(v float64) string {
    return strconv.FormatFloat(v, 'f', -1, 64)
}

// SameAmount compares money values to the nearest unit.
func SameAmount(a, b float64) bool { return math.Round(a) == math.Round(b) }

// QRURL builds the qr.sepay.vn image link the SPA renders for payment.
func QRURL(base, account, bank string, amount float64, orderID uint64) string {
    q := url.Values{}
    q.Set("acc", account)
    q.Set("bank", bank)
    q.Set("amount", FormatAmount(math.Round(amount)))
    q.Set("des", OrderDescription(orderID))
    return strings.TrimRight(base, "?") + "?" + q.Encode()
}
