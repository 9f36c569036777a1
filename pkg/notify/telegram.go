package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/geomath"
	"github.com/fleetfuel/fleetfuel/pkg/stopfinder"
	"github.com/fleetfuel/fleetfuel/pkg/util"
)

const messageDivider = "────────────────────────────────"

const maxSendRetries = 4
const minRateLimitWait = 5 * time.Second

// TelegramManager sends dispatcher notifications to the configured group
// chat. Message ids are returned so followups can reply in a thread.
type TelegramManager struct {
	BotToken string
	ChatID   string

	apiBaseURL string
	httpClient *http.Client
}

func (m *TelegramManager) Setup() error {
	env := util.GetEnvironmentVariables()

	m.BotToken = env["FLEETFUEL_TELEGRAM_BOT_TOKEN"]
	if m.BotToken == "" {
		m.BotToken = env["TELEGRAM_BOT_TOKEN"]
	}

	m.ChatID = env["FLEETFUEL_TELEGRAM_GROUP_ID"]
	if m.ChatID == "" {
		m.ChatID = env["TELEGRAM_GROUP_ID"]
	}

	if m.BotToken == "" || m.ChatID == "" {
		return errors.New("telegram bot token and group id must be set")
	}

	m.apiBaseURL = "https://api.telegram.org"
	m.httpClient = &http.Client{Timeout: 10 * time.Second}

	return nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	ReplyToMessageID      int    `json:"reply_to_message_id,omitempty"`
}

type sendMessageResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
	Parameters struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (m *TelegramManager) send(text string, replyToMessageID int) (int, error) {
	request := sendMessageRequest{
		ChatID:                m.ChatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
		ReplyToMessageID:      replyToMessageID,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return 0, err
	}

	requestURL := fmt.Sprintf("%s/bot%s/sendMessage", m.apiBaseURL, m.BotToken)

	retryPolicy := backoff.NewExponentialBackOff()

	var lastErr error
	for attempt := 0; attempt <= maxSendRetries; attempt++ {
		messageID, retryAfter, err := m.attemptSend(requestURL, requestBody)
		if err == nil {
			return messageID, nil
		}
		lastErr = err

		if attempt == maxSendRetries {
			break
		}

		time.Sleep(sendRetryWait(retryPolicy, retryAfter))
	}

	return 0, lastErr
}

// sendRetryWait picks the wait before the next attempt: a server-mandated
// retry_after replaces the exponential backoff rather than adding to it.
func sendRetryWait(retryPolicy backoff.BackOff, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter < minRateLimitWait {
			retryAfter = minRateLimitWait
		}
		return retryAfter
	}

	return retryPolicy.NextBackOff()
}

func (m *TelegramManager) attemptSend(requestURL string, requestBody []byte) (int, time.Duration, error) {
	resp, err := m.httpClient.Post(requestURL, "application/json", bytes.NewReader(requestBody))
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var response sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, 0, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(response.Parameters.RetryAfter) * time.Second
		if retryAfter <= 0 {
			retryAfter = minRateLimitWait
		}
		log.Warn().Str("retry_after", retryAfter.String()).Msg("Telegram rate limited")

		return 0, retryAfter, errors.New("telegram rate limited")
	}

	if resp.StatusCode != http.StatusOK || !response.OK {
		return 0, 0, fmt.Errorf("telegram sendMessage returned %s", resp.Status)
	}

	return response.Result.MessageID, 0, nil
}

func driverOrUnknown(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

func mapsURL(latitude float64, longitude float64) string {
	return fmt.Sprintf("https://maps.google.com/?q=%f,%f", latitude, longitude)
}

func classificationNote(classification stopfinder.Classification) string {
	switch classification {
	case stopfinder.ClassificationLovesNear:
		return "⚠️ No Pilot/Flying J within 50 mi — nearest Love's shown."
	case stopfinder.ClassificationPilotExtended:
		return "⚠️ No stop within 50 mi — nearest Pilot at 80 mi shown."
	case stopfinder.ClassificationLovesExtended:
		return "⚠️ No Pilot or Love's within 50 mi — nearest Love's at 80 mi shown."
	}
	return ""
}

func (m *TelegramManager) SendLowFuel(snapshot cfdf.VehicleSnapshot, stop stopfinder.FoundStop, classification stopfinder.Classification) (int, error) {
	address := fmt.Sprintf("%s, %s, %s", stop.Address, stop.City, stop.State)

	var builder strings.Builder
	fmt.Fprintf(&builder, "⛽️ *LOW FUEL ALERT*\n%s\n", messageDivider)
	fmt.Fprintf(&builder, "🚛 *Truck:* %s\n", snapshot.VehicleName)
	fmt.Fprintf(&builder, "👤 *Driver:* %s\n", driverOrUnknown(snapshot.DriverName))
	fmt.Fprintf(&builder, "⛽️ *Fuel:*     %.0f%%\n", snapshot.FuelPercent)
	fmt.Fprintf(&builder, "📍 *Location:* %.4f, %.4f (%s)\n", snapshot.Latitude, snapshot.Longitude, mapsURL(snapshot.Latitude, snapshot.Longitude))
	fmt.Fprintf(&builder, "🧭 %.0f mph · heading %s\n", snapshot.SpeedMPH, geomath.CompassPoint(snapshot.Heading))
	fmt.Fprintf(&builder, "🏁 *Nearest Stop:*\n")
	fmt.Fprintf(&builder, "🏪 %s  ·  %s\n", stop.Name, strings.ToUpper(stop.Brand))
	fmt.Fprintf(&builder, "📮 %s\n", address)
	fmt.Fprintf(&builder, "📏 %.1f miles ahead\n", stop.DistanceMiles)
	fmt.Fprintf(&builder, "🗺 [Open in Google Maps](%s)\n", mapsURL(stop.Latitude, stop.Longitude))
	fmt.Fprintf(&builder, "✅ Alert closes automatically once truck stops at this location.")

	if note := classificationNote(classification); note != "" {
		fmt.Fprintf(&builder, "\n%s", note)
	}

	return m.send(builder.String(), 0)
}

func (m *TelegramManager) SendNoStopFound(snapshot cfdf.VehicleSnapshot) (int, error) {
	var builder strings.Builder
	fmt.Fprintf(&builder, "🚨 *LOW FUEL ALERT — NO STOP FOUND*\n%s\n", messageDivider)
	fmt.Fprintf(&builder, "🚛 *Truck:* %s\n", snapshot.VehicleName)
	fmt.Fprintf(&builder, "👤 *Driver:* %s\n", driverOrUnknown(snapshot.DriverName))
	fmt.Fprintf(&builder, "⛽️ *Fuel:*     %.0f%%\n", snapshot.FuelPercent)
	fmt.Fprintf(&builder, "📍 *Location:* %.4f, %.4f (%s)\n", snapshot.Latitude, snapshot.Longitude, mapsURL(snapshot.Latitude, snapshot.Longitude))
	fmt.Fprintf(&builder, "🧭 %.0f mph · heading %s\n\n", snapshot.SpeedMPH, geomath.CompassPoint(snapshot.Heading))
	fmt.Fprintf(&builder, "❌ No Pilot, Flying J, or Love's within 80 miles.\n")
	fmt.Fprintf(&builder, "📞 *Dispatcher: contact driver immediately.*")

	return m.send(builder.String(), 0)
}

func (m *TelegramManager) SendRefueled(snapshot cfdf.VehicleSnapshot, stopName string) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "✅ *TRUCK REFUELED*\n%s\n", messageDivider)
	fmt.Fprintf(&builder, "🚛 *Truck:* %s\n", snapshot.VehicleName)
	fmt.Fprintf(&builder, "👤 *Driver:* %s\n", driverOrUnknown(snapshot.DriverName))
	fmt.Fprintf(&builder, "🏪 *Refueled at:* %s\n", stopName)
	fmt.Fprintf(&builder, "⛽️ *Fuel now:*  %.0f%%\n", snapshot.FuelPercent)
	fmt.Fprintf(&builder, "✅ Alert closed.")

	_, err := m.send(builder.String(), 0)

	return err
}

func (m *TelegramManager) SendStopSkipped(snapshot cfdf.VehicleSnapshot, stopName string, replyToMessageID int) (int, error) {
	var builder strings.Builder
	fmt.Fprintf(&builder, "🚩 *FUEL STOP SKIPPED*\n%s\n", messageDivider)
	fmt.Fprintf(&builder, "🚛 *Truck:* %s\n", snapshot.VehicleName)
	fmt.Fprintf(&builder, "👤 *Driver:* %s\n", driverOrUnknown(snapshot.DriverName))
	fmt.Fprintf(&builder, "⛽️ *Fuel:*     %.0f%%\n", snapshot.FuelPercent)
	fmt.Fprintf(&builder, "🏪 *Skipped:* %s\n", stopName)
	fmt.Fprintf(&builder, "📞 *Dispatcher: contact driver immediately.*")

	return m.send(builder.String(), replyToMessageID)
}

func (m *TelegramManager) SendLeftYardLowFuel(snapshot cfdf.VehicleSnapshot, yardName string) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "🏠 *LEFT YARD — LOW FUEL*\n%s\n", messageDivider)
	fmt.Fprintf(&builder, "🚛 *Truck:* %s\n", snapshot.VehicleName)
	fmt.Fprintf(&builder, "👤 *Driver:* %s\n", driverOrUnknown(snapshot.DriverName))
	fmt.Fprintf(&builder, "⛽️ *Fuel:*     %.0f%%\n", snapshot.FuelPercent)
	fmt.Fprintf(&builder, "📍 *Departed:* %s\n", yardName)
	fmt.Fprintf(&builder, "Finding nearest stop...")

	_, err := m.send(builder.String(), 0)

	return err
}

func (m *TelegramManager) SendStartup() error {
	_, err := m.send("🚛 *FleetFuel Bot online.* Monitoring fuel levels.", 0)

	return err
}
