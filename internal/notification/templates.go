package notification

import (
	"bytes"
	"html/template"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<html><body>
<p>Dear {{.Name}},</p>
<p>Your one-time password for Global Pooja Booking is <strong>{{.Code}}</strong>.</p>
<p>It is valid for {{.Minutes}} minutes. Do not share it with anyone.</p>
</body></html>`))

var bookingTemplate = template.Must(template.New("booking").Parse(`<html><body>
<p>Dear {{.Name}},</p>
<p>Your booking for <strong>{{.ServiceName}}</strong> has been received.</p>
<table>
<tr><td>Booking ID</td><td>#{{.BookingID}}</td></tr>
<tr><td>Date</td><td>{{.BookingDate.Format "02 Jan 2006 15:04"}}</td></tr>
<tr><td>Amount</td><td>INR {{.Total.StringFixed 2}}</td></tr>
</table>
<p>Thank you for choosing Global Pooja.</p>
</body></html>`))

var paymentTemplate = template.Must(template.New("payment").Parse(`<html><body>
<p>Dear {{.Name}},</p>
<p>We have received your payment for <strong>{{.ServiceName}}</strong>.</p>
<table>
<tr><td>Payment ID</td><td>{{.PaymentID}}</td></tr>
<tr><td>Order ID</td><td>{{.OrderID}}</td></tr>
<tr><td>Amount</td><td>{{.Currency}} {{.Amount.StringFixed 2}}</td></tr>
<tr><td>Date</td><td>{{.PaidAt.Format "02 Jan 2006 15:04"}}</td></tr>
</table>
<p>Thank you for choosing Global Pooja.</p>
</body></html>`))

func renderOTP(name, code string, minutes int) (string, error) {
	return render(otpTemplate, struct {
		Name    string
		Code    string
		Minutes int
	}{name, code, minutes})
}

func renderBooking(n BookingNotice) (string, error) {
	return render(bookingTemplate, n)
}

func renderPayment(n PaymentNotice) (string, error) {
	return render(paymentTemplate, n)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
